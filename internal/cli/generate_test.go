package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateConfigFromFlags(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	var captured *GenerateConfig
	generateRunner = func(ctx context.Context, cfg *GenerateConfig) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })

	root.SetArgs([]string{
		"--verbose",
		"generate",
		"--input", "catalog.yaml",
		"--input-format", "catalog",
		"--out", "./types.d.ts",
		"--namespace", "Api",
		"--enum-mode", "union",
		"--stable-types", "SearchRequest,SearchResponse",
		"--dry-run",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured == nil {
		t.Fatalf("expected config to be captured")
	}

	if captured.Input != "catalog.yaml" {
		t.Errorf("input mismatch: got %q", captured.Input)
	}
	if captured.InputFormat != "catalog" {
		t.Errorf("input format mismatch: got %q", captured.InputFormat)
	}
	if captured.Out != "./types.d.ts" {
		t.Errorf("out mismatch: got %q", captured.Out)
	}
	if captured.Namespace != "Api" {
		t.Errorf("namespace mismatch: got %q", captured.Namespace)
	}
	if captured.EnumMode != "union" {
		t.Errorf("enum mode mismatch: got %q", captured.EnumMode)
	}
	if want := []string{"SearchRequest", "SearchResponse"}; !equalStringSlices(captured.StableTypes, want) {
		t.Errorf("stable types mismatch: got %v", captured.StableTypes)
	}
	if !captured.DryRun {
		t.Errorf("expected dry-run true")
	}
	if !captured.Verbose {
		t.Errorf("expected verbose true")
	}
}

func TestGenerateConfigPrecedence(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := strings.TrimSpace(`input: config-catalog.yaml
inputFormat: catalog
out: from-config.d.ts
namespace: CfgApi
enumMode: union
stableTypes:
  - CfgRequest
dryRun: true
verbose: true
`) + "\n"

	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	var captured *GenerateConfig
	generateRunner = func(ctx context.Context, cfg *GenerateConfig) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })

	root.SetArgs([]string{
		"--config", configPath,
		"generate",
		"--input", "flag-catalog.yaml",
		"--enum-mode", "enum",
		"--dry-run=false",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured == nil {
		t.Fatalf("expected config to be captured")
	}

	if captured.Input != "flag-catalog.yaml" {
		t.Errorf("input: want %q got %q", "flag-catalog.yaml", captured.Input)
	}
	if captured.Out != "from-config.d.ts" {
		t.Errorf("out: want from-config.d.ts got %q", captured.Out)
	}
	if captured.Namespace != "CfgApi" {
		t.Errorf("namespace: want CfgApi got %q", captured.Namespace)
	}
	if captured.EnumMode != "enum" {
		t.Errorf("expected enum mode from flag override, got %q", captured.EnumMode)
	}
	if want := []string{"CfgRequest"}; !equalStringSlices(captured.StableTypes, want) {
		t.Errorf("stable types: want %v got %v", want, captured.StableTypes)
	}
	if captured.DryRun {
		t.Errorf("expected dry-run false after flag override")
	}
	if !captured.Verbose {
		t.Errorf("expected verbose true from config file")
	}
	if captured.ConfigPath != configPath {
		t.Errorf("config path mismatch: got %q", captured.ConfigPath)
	}
}

func TestGenerateConfigUnknownKey(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("unknown: value\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	root.SetArgs([]string{
		"--config", configPath,
		"generate",
		"--input", "catalog.yaml",
	})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestGenerateConfigValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing input",
			args: []string{"generate"},
			want: "--input is required",
		},
		{
			name: "bad input format",
			args: []string{"generate", "--input", "catalog.yaml", "--input-format", "protobuf"},
			want: "unsupported --input-format",
		},
		{
			name: "bad enum mode",
			args: []string{"generate", "--input", "catalog.yaml", "--enum-mode", "bitmask"},
			want: "unsupported --enum-mode",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			root := NewRootCmd()
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			root.SetArgs(tc.args)

			err := root.Execute()
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected usage error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q missing %q", err.Error(), tc.want)
			}
		})
	}
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
