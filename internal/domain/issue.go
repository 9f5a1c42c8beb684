package domain

// Severity classifies a validation issue.
type Severity string

const (
	// SeverityCritical blocks the import.
	SeverityCritical Severity = "critical"
	// SeverityWarning flags a suspicious but importable value.
	SeverityWarning Severity = "warning"
	// SeveritySuggestion is a best-practice nudge.
	SeveritySuggestion Severity = "suggestion"
)

// ValidationIssue is one problem found on one cell of an uploaded row.
// RowIndex is -1 for issues that are not tied to a single row.
type ValidationIssue struct {
	RowIndex     int      `json:"rowIndex"`
	ColumnName   string   `json:"columnName"`
	Severity     Severity `json:"severity"`
	Message      string   `json:"message"`
	CurrentValue any      `json:"currentValue"`
}

// ValidationSummary counts issues by severity.
type ValidationSummary struct {
	Total      int `json:"total"`
	Critical   int `json:"critical"`
	Warning    int `json:"warning"`
	Suggestion int `json:"suggestion"`
	UniqueRows int `json:"uniqueRows"`
}

// CanImport reports whether the summary allows an import to start.
func (s ValidationSummary) CanImport() bool { return s.Critical == 0 }

// Summarize derives a ValidationSummary from a list of issues.
// UniqueRows counts distinct row indices, ignoring run-level issues.
func Summarize(issues []ValidationIssue) ValidationSummary {
	var s ValidationSummary
	rows := make(map[int]struct{})
	for _, is := range issues {
		s.Total++
		switch is.Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityWarning:
			s.Warning++
		case SeveritySuggestion:
			s.Suggestion++
		}
		if is.RowIndex >= 0 {
			rows[is.RowIndex] = struct{}{}
		}
	}
	s.UniqueRows = len(rows)
	return s
}
