package api

import (
	"errors"
	"net/http"

	"github.com/ignite/gameplan-importer/internal/pkg/httputil"
	"github.com/ignite/gameplan-importer/internal/pkg/logger"
	"github.com/ignite/gameplan-importer/internal/rowsource"
	"github.com/ignite/gameplan-importer/internal/service/imports"
	"github.com/ignite/gameplan-importer/internal/session"
	"github.com/ignite/gameplan-importer/internal/validation"
	"github.com/ignite/gameplan-importer/internal/worker"
)

// apiError maps a service sentinel to its HTTP status and public code.
type apiError struct {
	target error
	status int
	code   string
}

var errorTable = []apiError{
	{session.ErrNotFound, http.StatusNotFound, "session_not_found"},
	{session.ErrTooLarge, http.StatusRequestEntityTooLarge, "session_too_large"},
	{validation.ErrUnknownTemplate, http.StatusBadRequest, "unknown_template"},
	{imports.ErrNoRecords, http.StatusBadRequest, "no_records"},
	{rowsource.ErrUnsupportedFormat, http.StatusBadRequest, "unsupported_format"},
	{rowsource.ErrNoHeader, http.StatusBadRequest, "no_header"},
	{worker.ErrImportInProgress, http.StatusConflict, "import_in_progress"},
	{session.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{imports.ErrNotRunning, http.StatusConflict, "import_not_running"},
	{imports.ErrNotValidated, http.StatusUnprocessableEntity, "not_validated"},
	{imports.ErrCriticalIssues, http.StatusUnprocessableEntity, "critical_issues"},
	{worker.ErrShuttingDown, http.StatusServiceUnavailable, "shutting_down"},
}

// respondError writes err using errorTable. Anything unmapped is logged and
// answered with a generic 500 so internal details never reach the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			if e.status >= 500 {
				logger.Warn("api: request refused", "path", r.URL.Path, "error", err)
			}
			httputil.ErrorWithCode(w, e.status, e.code, err.Error())
			return
		}
	}
	logger.Error("api: request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	httputil.InternalError(w, err)
}
