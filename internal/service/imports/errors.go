package imports

import "errors"

// Sentinel errors for the import service.
var (
	ErrNoRecords      = errors.New("upload contains no records")
	ErrNotValidated   = errors.New("session has not been validated")
	ErrCriticalIssues = errors.New("session has critical validation issues")
	ErrNotRunning     = errors.New("no import is running for this session")
)
