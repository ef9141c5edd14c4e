// Package policyconfig implements the Policy Config Loader/Validator (C12):
// parse a YAML policy file, deep-merge it over built-in defaults, and
// schema-validate the result with struct tags.
package policyconfig

import (
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FilesystemNormalization is normalization.filesystem.
type FilesystemNormalization struct {
	CollapseTemp bool     `yaml:"collapse_temp"`
	CollapseHome bool     `yaml:"collapse_home"`
	IgnoreGlobs  []string `yaml:"ignore_globs"`
}

// NetworkNormalization is normalization.network.
type NetworkNormalization struct {
	NormalizeHosts bool `yaml:"normalize_hosts"`
}

// ExecNormalization is normalization.exec.
type ExecNormalization struct {
	ArgvMode     string   `yaml:"argv_mode" validate:"omitempty,oneof=full hash none"`
	MaskPatterns []string `yaml:"mask_patterns"`
}

// Normalization bundles the three normalization sections.
type Normalization struct {
	Filesystem FilesystemNormalization `yaml:"filesystem"`
	Network    NetworkNormalization    `yaml:"network"`
	Exec       ExecNormalization       `yaml:"exec"`
}

// Redaction is the top-level redaction section.
type Redaction struct {
	RedactPaths []string `yaml:"redact_paths"`
	RedactURLs  []string `yaml:"redact_urls"`
	HashValues  bool     `yaml:"hash_values"`
}

// FilesystemPolicy is policy.filesystem.
type FilesystemPolicy struct {
	AllowWrites      []string `yaml:"allow_writes"`
	BlockWrites      []string `yaml:"block_writes"`
	EnforceAllowlist bool     `yaml:"enforce_allowlist"`
}

// NetworkPolicy is policy.network.
type NetworkPolicy struct {
	AllowHosts       []string `yaml:"allow_hosts"`
	AllowETLDPlus1   []string `yaml:"allow_etld_plus_1"`
	BlockProtocols   []string `yaml:"block_protocols"`
	AllowProtocols   []string `yaml:"allow_protocols"`
	AllowPorts       []int    `yaml:"allow_ports"`
	BlockPorts       []int    `yaml:"block_ports"`
	EnforceAllowlist bool     `yaml:"enforce_allowlist"`
}

// ExecPolicy is policy.exec.
type ExecPolicy struct {
	AllowCommands    []string `yaml:"allow_commands"`
	BlockCommands    []string `yaml:"block_commands"`
	EnforceAllowlist bool     `yaml:"enforce_allowlist"`
}

// SensitivePolicy is policy.sensitive.
type SensitivePolicy struct {
	BlockEnv       []string `yaml:"block_env"`
	BlockFileGlobs []string `yaml:"block_file_globs"`
}

// Policy bundles the four policy sections.
type Policy struct {
	Filesystem FilesystemPolicy `yaml:"filesystem"`
	Network    NetworkPolicy    `yaml:"network"`
	Exec       ExecPolicy       `yaml:"exec"`
	Sensitive  SensitivePolicy  `yaml:"sensitive"`
}

// Config is the full policy configuration surface from §6.
type Config struct {
	Version       int           `yaml:"version" validate:"required"`
	WorkspaceRoot string        `yaml:"workspace_root"`
	Normalization Normalization `yaml:"normalization"`
	Redaction     Redaction     `yaml:"redaction"`
	Policy        Policy        `yaml:"policy"`
}

// Default returns the built-in default configuration.
func Default() Config {
	return Config{
		Version: 1,
		Normalization: Normalization{
			Network: NetworkNormalization{NormalizeHosts: true},
			Exec:    ExecNormalization{ArgvMode: "full"},
		},
	}
}

var validate = validator.New()

// Load reads path, deep-merges it over Default(), schema-validates the
// result, and resolves a relative workspace_root against fallbackRoot. On a
// parse or validation failure, the issue is returned alongside the
// defaults — callers log it and fall back, per §4.12.
func Load(path, fallbackRoot string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.WorkspaceRoot = resolveRoot(cfg.WorkspaceRoot, fallbackRoot)
			return cfg, nil
		}
		return cfg, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return cfg, err
	}
	applyLegacyRename(&node)

	var parsed Config
	if err := node.Decode(&parsed); err != nil {
		return cfg, err
	}

	merged := mergeConfig(cfg, parsed)
	merged.WorkspaceRoot = resolveRoot(merged.WorkspaceRoot, fallbackRoot)

	if err := validate.Struct(merged); err != nil {
		return cfg, err
	}
	return merged, nil
}

func resolveRoot(workspaceRoot, fallbackRoot string) string {
	if workspaceRoot == "" {
		return fallbackRoot
	}
	if filepath.IsAbs(workspaceRoot) {
		return workspaceRoot
	}
	return filepath.Join(fallbackRoot, workspaceRoot)
}

// applyLegacyRename maps the deprecated redaction.redact_hosts key onto
// redaction.redact_urls when only the old name is present, per §4.12.
func applyLegacyRename(node *yaml.Node) {
	if node.Kind != yaml.DocumentNode || len(node.Content) == 0 {
		return
	}
	root := node.Content[0]
	if root.Kind != yaml.MappingNode {
		return
	}
	redaction := findMappingValue(root, "redaction")
	if redaction == nil || redaction.Kind != yaml.MappingNode {
		return
	}
	if findMappingValue(redaction, "redact_urls") != nil {
		return
	}
	if legacy := findMappingValue(redaction, "redact_hosts"); legacy != nil {
		redaction.Content = append(redaction.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "redact_urls"},
			legacy,
		)
	}
}

func findMappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
