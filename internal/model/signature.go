package model

// SignatureVersion is the current canonical EffectSignature schema version.
const SignatureVersion = "1.0"

// Adapter identifies which recording adapter produced a log.
type Adapter string

const (
	AdapterNodeHook      Adapter = "node-hook"
	AdapterOpenClawNode  Adapter = "openclaw+node-hook"
)

// SignatureMeta carries provenance for a signature, independent of its
// effect contents.
type SignatureMeta struct {
	SignatureVersion          string  `json:"signature_version"`
	NormalizationRulesVersion string  `json:"normalization_rules_version"`
	ToolVersion               string  `json:"tool_version"`
	Platform                  string  `json:"platform"`
	Adapter                   Adapter `json:"adapter"`
	ScenarioID                string  `json:"scenario_id,omitempty"`
	RuntimeVersion            string  `json:"runtime_version"`
}

// Effects holds the ten canonical, sorted, deduplicated effect lists.
type Effects struct {
	FSWrites              []string `json:"fs_writes"`
	FSReadsExternal       []string `json:"fs_reads_external"`
	FSDeletes             []string `json:"fs_deletes"`
	NetProtocols          []string `json:"net_protocols"`
	NetETLDPlus1          []string `json:"net_etld_plus_1"`
	NetHosts              []string `json:"net_hosts"`
	NetPorts              []int    `json:"net_ports"`
	ExecCommands          []string `json:"exec_commands"`
	ExecArgv              []string `json:"exec_argv"`
	SensitiveKeysAccessed []string `json:"sensitive_keys_accessed"`
}

// Signature is the canonical, deterministic projection of a trace log.
type Signature struct {
	Meta    SignatureMeta `json:"meta"`
	Effects Effects       `json:"effects"`
}

// FieldNames lists the ten effect fields in the fixed order used by diff,
// policy evaluation, and similarity tokenization.
var FieldNames = []string{
	"fs_writes",
	"fs_reads_external",
	"fs_deletes",
	"net_protocols",
	"net_etld_plus_1",
	"net_hosts",
	"net_ports",
	"exec_commands",
	"exec_argv",
	"sensitive_keys_accessed",
}

// StringField returns the named string-valued effect field, or nil if the
// field is net_ports (which is integer-valued; use IntField for that).
func (e Effects) StringField(name string) []string {
	switch name {
	case "fs_writes":
		return e.FSWrites
	case "fs_reads_external":
		return e.FSReadsExternal
	case "fs_deletes":
		return e.FSDeletes
	case "net_protocols":
		return e.NetProtocols
	case "net_etld_plus_1":
		return e.NetETLDPlus1
	case "net_hosts":
		return e.NetHosts
	case "exec_commands":
		return e.ExecCommands
	case "exec_argv":
		return e.ExecArgv
	case "sensitive_keys_accessed":
		return e.SensitiveKeysAccessed
	default:
		return nil
	}
}

// IntField returns the named integer-valued effect field (net_ports).
func (e Effects) IntField(name string) []int {
	if name == "net_ports" {
		return e.NetPorts
	}
	return nil
}
