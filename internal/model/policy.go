package model

// Severity ranks a PolicyFinding. Higher values win when composing a verdict.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityBlock Severity = "BLOCK"
)

// rank orders severities for verdict composition (max-severity-wins).
var rank = map[Severity]int{
	SeverityInfo:  0,
	SeverityWarn:  1,
	SeverityBlock: 2,
}

// Outranks reports whether s is strictly more severe than other.
func (s Severity) Outranks(other Severity) bool {
	return rank[s] > rank[other]
}

// FindingCategory groups a finding by the subsystem that produced it.
type FindingCategory string

const (
	FindingFilesystem FindingCategory = "filesystem"
	FindingNetwork    FindingCategory = "network"
	FindingExec       FindingCategory = "exec"
	FindingSensitive  FindingCategory = "sensitive"
)

// Finding is a single policy evaluation result.
type Finding struct {
	Severity   Severity        `json:"severity"`
	Category   FindingCategory `json:"category"`
	Message    string          `json:"message"`
	Suggestion string          `json:"suggestion,omitempty"`
	Evidence   string          `json:"evidence,omitempty"`
}

// Verdict summarizes a list of findings into a single severity.
type Verdict string

const (
	VerdictPass  Verdict = "PASS"
	VerdictWarn  Verdict = "WARN"
	VerdictBlock Verdict = "BLOCK"
)

// ComposeVerdict returns BLOCK if any finding is BLOCK, else WARN if any is
// WARN, else PASS.
func ComposeVerdict(findings []Finding) Verdict {
	sawWarn := false
	for _, f := range findings {
		switch f.Severity {
		case SeverityBlock:
			return VerdictBlock
		case SeverityWarn:
			sawWarn = true
		}
	}
	if sawWarn {
		return VerdictWarn
	}
	return VerdictPass
}

// ExitCode returns the process exit code a verdict should produce (§6, §7).
func (v Verdict) ExitCode() int {
	if v == VerdictBlock {
		return 1
	}
	return 0
}

// DiffResult holds the per-field set-difference of a current signature
// against a baseline (current \ baseline), preserving sort order.
type DiffResult struct {
	Drift         Effects `json:"drift"`
	BaselineEmpty bool    `json:"baseline_empty"`
}
