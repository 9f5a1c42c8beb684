package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/pkg/httputil"
	"github.com/ignite/gameplan-importer/internal/rowsource"
	"github.com/ignite/gameplan-importer/internal/service/imports"
)

// ImportService is the import workflow used by the handlers.
type ImportService interface {
	Upload(ctx context.Context, in imports.UploadInput) (*domain.ImportSession, error)
	Session(ctx context.Context, id string) (*domain.ImportSession, error)
	Validate(ctx context.Context, id string) (*imports.ValidateResult, error)
	StartImport(ctx context.Context, id string) (*imports.StartResult, error)
	Progress(ctx context.Context, id string) (*imports.ProgressView, error)
	Cancel(ctx context.Context, id string) error
	FieldMapping(template string) (map[string]string, error)
}

// Handlers serves the /api/imports routes.
type Handlers struct {
	svc            ImportService
	maxUploadBytes int64
}

// NewHandlers returns handlers over svc. Request bodies larger than
// maxUploadMB are rejected.
func NewHandlers(svc ImportService, maxUploadMB int) *Handlers {
	if maxUploadMB <= 0 {
		maxUploadMB = 20
	}
	return &Handlers{svc: svc, maxUploadBytes: int64(maxUploadMB) << 20}
}

type uploadRequest struct {
	Template         string              `json:"template" validate:"required,oneof=gameplan sufficiency"`
	CountryID        string              `json:"countryId" validate:"required"`
	FinancialCycleID string              `json:"financialCycleId" validate:"required"`
	Records          []map[string]string `json:"records" validate:"required,min=1"`
}

type sessionRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

type uploadResponse struct {
	SessionID string               `json:"sessionId"`
	Status    domain.SessionStatus `json:"status"`
	Rows      int                  `json:"rows"`
}

func toRecords(rows []map[string]string) []domain.Record {
	out := make([]domain.Record, len(rows))
	for i, r := range rows {
		out[i] = domain.Record(r)
	}
	return out
}

// HandleUpload stores parsed rows as a new session.
//
//	POST /api/imports
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	var req uploadRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	h.upload(w, r, imports.UploadInput{
		Template:         req.Template,
		CountryID:        req.CountryID,
		FinancialCycleID: req.FinancialCycleID,
		Records:          toRecords(req.Records),
	})
}

// HandleUploadFile parses a CSV or XLSX upload into a new session.
//
//	POST /api/imports/file (multipart: template, countryId, financialCycleId, sheet, file)
func (h *Handlers) HandleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		httputil.BadRequest(w, "invalid multipart upload: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	src, err := rowsource.ForName(header.Filename, file, r.FormValue("sheet"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	records, err := src.Records()
	if err != nil {
		httputil.ErrorWithCode(w, http.StatusBadRequest, "unreadable_file", err.Error())
		return
	}
	h.upload(w, r, imports.UploadInput{
		Template:         r.FormValue("template"),
		CountryID:        r.FormValue("countryId"),
		FinancialCycleID: r.FormValue("financialCycleId"),
		Records:          records,
	})
}

func (h *Handlers) upload(w http.ResponseWriter, r *http.Request, in imports.UploadInput) {
	sess, err := h.svc.Upload(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.Created(w, uploadResponse{SessionID: sess.SessionID, Status: sess.Status, Rows: len(sess.Records)})
}

// HandleGetSession returns the full session document.
//
//	GET /api/imports/{sessionId}
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Session(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, sess)
}

// HandleValidate validates an uploaded session.
//
//	POST /api/imports/validate
func (h *Handlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	res, err := h.svc.Validate(r.Context(), req.SessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, res)
}

// HandleImport starts the background import of a validated session.
//
//	POST /api/imports/import
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	res, err := h.svc.StartImport(r.Context(), req.SessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.Accepted(w, res)
}

// HandleProgress reports import progress. The session id comes from the
// path on GET and from the body on POST.
//
//	GET  /api/imports/{sessionId}/progress
//	POST /api/imports/progress
func (h *Handlers) HandleProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	if id == "" {
		var req sessionRequest
		if !httputil.DecodeValid(w, r, &req) {
			return
		}
		id = req.SessionID
	}
	view, err := h.svc.Progress(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, view)
}

// HandleCancel cancels a running import.
//
//	POST /api/imports/{sessionId}/cancel
func (h *Handlers) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	if err := h.svc.Cancel(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	httputil.Accepted(w, map[string]string{"sessionId": id, "status": "cancelling"})
}

// HandleFieldMapping returns the header to field id mapping of a template.
//
//	GET /api/imports/field-mapping?template=gameplan
func (h *Handlers) HandleFieldMapping(w http.ResponseWriter, r *http.Request) {
	template := r.URL.Query().Get("template")
	if template == "" {
		httputil.BadRequest(w, "template query parameter is required")
		return
	}
	m, err := h.svc.FieldMapping(template)
	if err != nil {
		respondError(w, r, fmt.Errorf("field mapping: %w", err))
		return
	}
	httputil.OK(w, map[string]any{"template": template, "fieldMapping": m})
}
