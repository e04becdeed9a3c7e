package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/dtsgen/dtsgen/internal/catalog"
	"github.com/dtsgen/dtsgen/internal/emitter/tsemitter"
	"github.com/dtsgen/dtsgen/internal/openapi"
)

// GenerateConfig captures all inputs that influence the generate command
// after merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input       string
	InputFormat string
	Out         string
	Namespace   string
	EnumMode    string
	StableTypes []string
	ConfigPath  string
	DryRun      bool
	Verbose     bool
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		InputFormat: "catalog",
		EnumMode:    string(tsemitter.EnumModeConstants),
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a TypeScript declaration file from a type catalog",
		Long: "Generate a TypeScript declaration file from a type-definition catalog " +
			"or an OpenAPI document. Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  dtsgen generate --input catalog.yaml --out types.d.ts
  dtsgen generate --input openapi.yaml --input-format openapi --namespace Api
  dtsgen --config dtsgen.yaml generate --enum-mode union --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path to the type catalog or OpenAPI document")
	flags.String("input-format", "", "Input format (catalog|openapi); defaults to catalog")
	flags.String("out", "", "Output declaration file (defaults to <namespace>.d.ts)")
	flags.String("namespace", "", "Outer namespace name wrapping all declarations")
	flags.String("enum-mode", "", "Enum rendering mode (enum|union); defaults to enum")
	flags.StringSlice("stable-types", nil, "Override the stable-type allow-list for stability annotations")
	flags.Bool("dry-run", false, "Preview the planned output without writing the file")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	if flags.Changed("input") {
		value, err := flags.GetString("input")
		if err != nil {
			return err
		}
		cfg.Input = strings.TrimSpace(value)
	}
	if flags.Changed("input-format") {
		value, err := flags.GetString("input-format")
		if err != nil {
			return err
		}
		cfg.InputFormat = strings.TrimSpace(value)
	}
	if flags.Changed("out") {
		value, err := flags.GetString("out")
		if err != nil {
			return err
		}
		cfg.Out = strings.TrimSpace(value)
	}
	if flags.Changed("namespace") {
		value, err := flags.GetString("namespace")
		if err != nil {
			return err
		}
		cfg.Namespace = strings.TrimSpace(value)
	}
	if flags.Changed("enum-mode") {
		value, err := flags.GetString("enum-mode")
		if err != nil {
			return err
		}
		cfg.EnumMode = strings.TrimSpace(value)
	}
	if flags.Changed("stable-types") {
		value, err := flags.GetStringSlice("stable-types")
		if err != nil {
			return err
		}
		cfg.StableTypes = sanitizeNames(value)
	}
	if flags.Changed("dry-run") {
		value, err := flags.GetBool("dry-run")
		if err != nil {
			return err
		}
		cfg.DryRun = value
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.InputFormat = strings.ToLower(strings.TrimSpace(c.InputFormat))
	c.Out = strings.TrimSpace(c.Out)
	c.Namespace = strings.TrimSpace(c.Namespace)
	c.EnumMode = strings.ToLower(strings.TrimSpace(c.EnumMode))
	c.StableTypes = sanitizeNames(c.StableTypes)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}

	switch c.InputFormat {
	case "":
		c.InputFormat = "catalog"
	case "catalog", "openapi":
	default:
		return newUsageError(fmt.Sprintf("generate: unsupported --input-format %q (allowed: catalog, openapi)", c.InputFormat))
	}

	switch c.EnumMode {
	case "":
		c.EnumMode = string(tsemitter.EnumModeConstants)
	case string(tsemitter.EnumModeConstants), string(tsemitter.EnumModeUnion):
	default:
		return newUsageError(fmt.Sprintf("generate: unsupported --enum-mode %q (allowed: enum, union)", c.EnumMode))
	}

	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	// 1) Build the catalog from the selected input format.
	var cat *catalog.Catalog
	switch cfg.InputFormat {
	case "openapi":
		doc, err := openapi.Load(ctx, cfg.Input)
		if err != nil {
			return err
		}
		cat = openapi.Build(doc)
	default:
		loaded, err := catalog.Load(cfg.Input)
		if err != nil {
			// Map structured catalog errors into friendly messages.
			var ce *catalog.CatalogError
			if errors.As(err, &ce) {
				msg := ce.Message
				if ce.Location != "" {
					msg = fmt.Sprintf("%s\nLocation: %s", msg, ce.Location)
				}
				return newUsageError(msg)
			}
			return err
		}
		cat = loaded
	}

	// 2) Derive sensible defaults for the namespace and output path.
	ns := cfg.Namespace
	if ns == "" {
		ns = tsemitter.DefaultNamespace
	}
	out := cfg.Out
	if out == "" {
		out = strings.ToLower(ns) + ".d.ts"
	}
	absOut := out
	if ap, err := filepath.Abs(out); err == nil {
		absOut = ap
	}

	// 3) Emit the declaration file.
	res, err := tsemitter.Emit(ctx, cat, tsemitter.Options{
		OutFile:     out,
		Namespace:   ns,
		EnumMode:    tsemitter.EnumMode(cfg.EnumMode),
		StableTypes: cfg.StableTypes,
		DryRun:      cfg.DryRun,
		Verbose:     cfg.Verbose,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}

	if cfg.DryRun {
		fmt.Fprintf(os.Stdout, "Planned write to %s (%d declarations, %d bytes)\n", absOut, res.Declarations, res.Planned.Size)
		return nil
	}
	if cfg.Verbose {
		fmt.Fprintf(os.Stdout, "Wrote %d declarations to %s\n", res.Declarations, absOut)
	}
	return nil
}

func wrapOutputError(err error, out string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or check directory permissions.", out, msg))
	}
	return err
}

func sanitizeNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		switch normalized {
		case "input":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Input = str
		case "inputformat":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.InputFormat = str
		case "out":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Out = str
		case "namespace":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Namespace = str
		case "enummode":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.EnumMode = str
		case "stabletypes":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.StableTypes = sanitizeNames(list)
		case "dryrun":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.DryRun = val
		case "verbose":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Verbose = val
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
