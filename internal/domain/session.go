package domain

import "time"

// SessionStatus enumerates the lifecycle states of an import session.
type SessionStatus string

const (
	SessionUploaded  SessionStatus = "uploaded"
	SessionValidated SessionStatus = "validated"
	SessionImporting SessionStatus = "importing"
	SessionImported  SessionStatus = "imported"
	SessionError     SessionStatus = "error"
)

// IsTerminal returns true if the session is in a final state.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionImported || s == SessionError
}

// sessionTransitions lists the allowed next states for each status.
// Any live state may move to error and imported is final. Re-validating a
// validated session is allowed.
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionUploaded:  {SessionValidated, SessionError},
	SessionValidated: {SessionValidated, SessionImporting, SessionError},
	SessionImporting: {SessionImported, SessionError},
	SessionImported:  {},
	SessionError:     {SessionError},
}

// CanTransition reports whether a session may move from s to next.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Import stages reported in ImportProgress.Stage.
const (
	StageStarting  = "starting"
	StageResolving = "resolving_entities"
	StageCommit    = "committing_records"
	StageCompleted = "completed"
	StageFailed    = "failed"
)

// ImportProgress is the structured progress payload. Every progress-producing
// call site emits this shape.
type ImportProgress struct {
	Current    int    `json:"current"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Stage      string `json:"stage"`
}

// ImportError describes one failed row, or a fatal run error when Index is -1.
type ImportError struct {
	Index        int    `json:"index"`
	Error        string `json:"error"`
	Type         string `json:"type,omitempty"`
	Campaign     string `json:"campaign,omitempty"`
	MediaSubtype string `json:"mediaSubtype,omitempty"`
}

// ImportResults counts what an import created or touched.
type ImportResults struct {
	RangesCount        int   `json:"rangesCount"`
	MediaSubtypesCount int   `json:"mediaSubtypesCount"`
	PMTypesCount       int   `json:"pmTypesCount"`
	CampaignsCount     int   `json:"campaignsCount"`
	GamePlansCount     int   `json:"gamePlansCount"`
	SufficiencyCount   int   `json:"sufficiencyCount"`
	SuccessfulRows     []int `json:"successfulRows"`
	FailedRows         []int `json:"failedRows"`
}

// Record is one uploaded row keyed by human-readable column header.
type Record map[string]string

// ImportSession is the durable, pollable document for one upload.
type ImportSession struct {
	SessionID         string            `json:"sessionId"`
	Template          string            `json:"template"`
	CountryID         string            `json:"countryId,omitempty"`
	FinancialCycleID  string            `json:"financialCycleId,omitempty"`
	Records           []Record          `json:"records"`
	ValidationIssues  []ValidationIssue `json:"validationIssues"`
	ValidationSummary ValidationSummary `json:"validationSummary"`
	Status            SessionStatus     `json:"status"`
	ImportProgress    ImportProgress    `json:"importProgress"`
	ImportErrors      []ImportError     `json:"importErrors"`
	ImportResults     *ImportResults    `json:"importResults,omitempty"`
	Error             string            `json:"error,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}
