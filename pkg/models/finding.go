package models

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
	SeverityInfo:     4,
}

// Rank returns the sort rank of the severity (lower is more severe).
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Location points at the source of a finding.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// Finding is one concrete issue surfaced by an analyzer. IDs are stable
// across runs so findings can be deduplicated and diffed.
type Finding struct {
	ID          string    `json:"id"`
	Severity    Severity  `json:"severity"`
	Category    Category  `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Remediation string    `json:"remediation,omitempty"`
	Location    *Location `json:"location,omitempty"`
	Evidence    string    `json:"evidence,omitempty"`
}

// MergeFindings concatenates finding groups, dropping later findings
// that reuse an already-seen ID. First occurrence wins.
func MergeFindings(groups ...[]Finding) []Finding {
	seen := make(map[string]bool)
	var merged []Finding
	for _, group := range groups {
		for _, f := range group {
			if seen[f.ID] {
				continue
			}
			seen[f.ID] = true
			merged = append(merged, f)
		}
	}
	return merged
}
