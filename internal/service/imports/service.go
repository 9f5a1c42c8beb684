package imports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/importer"
	"github.com/ignite/gameplan-importer/internal/pkg/logger"
	"github.com/ignite/gameplan-importer/internal/refstore"
	"github.com/ignite/gameplan-importer/internal/session"
	"github.com/ignite/gameplan-importer/internal/storage"
	"github.com/ignite/gameplan-importer/internal/validation"
	"github.com/ignite/gameplan-importer/internal/worker"
)

// MaxReturnedIssues caps the issues returned by Validate. The session keeps
// the full list.
const MaxReturnedIssues = 100

// Options holds the optional collaborators of a Service.
type Options struct {
	Pipeline *validation.Pipeline
	Engine   *importer.Engine
	// Archiver receives sessions once they reach a terminal status.
	Archiver storage.Archiver
}

// Service implements the upload, validate and import workflow. It is safe
// for concurrent use.
type Service struct {
	sessions session.Store
	refs     refstore.Opener
	jobs     *worker.ImportRunner
	pipeline *validation.Pipeline
	engine   *importer.Engine
	archiver storage.Archiver
}

// NewService wires a Service. Zero Options fall back to default pipeline
// and engine settings and no archive.
func NewService(sessions session.Store, refs refstore.Opener, jobs *worker.ImportRunner, opts Options) *Service {
	if opts.Pipeline == nil {
		opts.Pipeline = validation.NewPipeline(0, 0)
	}
	if opts.Engine == nil {
		opts.Engine = importer.NewEngine(0)
	}
	return &Service{
		sessions: sessions,
		refs:     refs,
		jobs:     jobs,
		pipeline: opts.Pipeline,
		engine:   opts.Engine,
		archiver: opts.Archiver,
	}
}

// UploadInput is a parsed upload.
type UploadInput struct {
	Template         string
	CountryID        string
	FinancialCycleID string
	Records          []domain.Record
}

// ValidateResult is returned by Validate.
type ValidateResult struct {
	Success      bool                     `json:"success"`
	SessionID    string                   `json:"sessionId"`
	Summary      domain.ValidationSummary `json:"summary"`
	Issues       []domain.ValidationIssue `json:"issues"`
	FieldMapping map[string]string        `json:"fieldMapping"`
	CanImport    bool                     `json:"canImport"`
}

// StartResult is returned by StartImport.
type StartResult struct {
	SessionID string                `json:"sessionId"`
	Status    domain.SessionStatus  `json:"status"`
	Message   string                `json:"message"`
	Progress  domain.ImportProgress `json:"progress"`
}

// ProgressView is the pollable import state of a session.
type ProgressView struct {
	Progress domain.ImportProgress `json:"progress"`
	Status   domain.SessionStatus  `json:"status"`
	Errors   []domain.ImportError  `json:"errors"`
	Results  *domain.ImportResults `json:"results,omitempty"`
	Error    string                `json:"error,omitempty"`
	Job      *worker.Job           `json:"job,omitempty"`
}

// Upload stores the rows of a new session in uploaded status.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*domain.ImportSession, error) {
	tmpl, err := validation.LookupTemplate(in.Template)
	if err != nil {
		return nil, err
	}
	if len(in.Records) == 0 {
		return nil, ErrNoRecords
	}

	sess := &domain.ImportSession{
		SessionID:        uuid.NewString(),
		Template:         tmpl.Name,
		CountryID:        in.CountryID,
		FinancialCycleID: in.FinancialCycleID,
		Records:          in.Records,
		Status:           domain.SessionUploaded,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	logger.Info("imports: session uploaded", "session_id", sess.SessionID, "template", sess.Template,
		"rows", len(sess.Records))
	return sess, nil
}

// Session returns the full session document.
func (s *Service) Session(ctx context.Context, id string) (*domain.ImportSession, error) {
	return s.sessions.Get(ctx, id)
}

// Validate runs the validation pipeline over a session's rows and moves it
// to validated. A fatal pipeline error moves it to error instead.
func (s *Service) Validate(ctx context.Context, id string) (*ValidateResult, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Status.CanTransition(domain.SessionValidated) {
		return nil, fmt.Errorf("%w: cannot validate a session in status %s", session.ErrInvalidTransition, sess.Status)
	}
	tmpl, err := validation.LookupTemplate(sess.Template)
	if err != nil {
		return nil, s.fail(ctx, id, err, nil)
	}

	res, err := s.validate(ctx, sess, tmpl)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, s.fail(ctx, id, fmt.Errorf("validate: %w", err), nil)
	}

	patch := session.Patch{ValidationIssues: &res.Issues, ValidationSummary: &res.Summary}.
		WithStatus(domain.SessionValidated)
	if _, err := s.sessions.Update(ctx, id, patch); err != nil {
		return nil, fmt.Errorf("save validation: %w", err)
	}

	issues := res.Issues
	if len(issues) > MaxReturnedIssues {
		issues = issues[:MaxReturnedIssues]
	}
	return &ValidateResult{
		Success:      true,
		SessionID:    id,
		Summary:      res.Summary,
		Issues:       issues,
		FieldMapping: tmpl.FieldMapping(),
		CanImport:    res.Summary.CanImport(),
	}, nil
}

func (s *Service) validate(ctx context.Context, sess *domain.ImportSession, tmpl *validation.Template) (*validation.Result, error) {
	store, release, err := s.refs.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open reference store: %w", err)
	}
	defer release()
	return s.pipeline.Run(ctx, store, tmpl, sess.Records, sess.CountryID, sess.FinancialCycleID)
}

// StartImport moves a validated session to importing and hands it to the
// job runner. It returns once the starting progress is persisted.
func (s *Service) StartImport(ctx context.Context, id string) (*StartResult, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch sess.Status {
	case domain.SessionValidated:
	case domain.SessionImporting:
		return nil, worker.ErrImportInProgress
	default:
		return nil, fmt.Errorf("%w: status is %s", ErrNotValidated, sess.Status)
	}
	if !sess.ValidationSummary.CanImport() {
		return nil, fmt.Errorf("%w: %d critical", ErrCriticalIssues, sess.ValidationSummary.Critical)
	}
	tmpl, err := validation.LookupTemplate(sess.Template)
	if err != nil {
		return nil, err
	}

	starting := domain.ImportProgress{Total: len(sess.Records), Stage: domain.StageStarting}
	begin := func(ctx context.Context) error {
		_, err := s.sessions.Update(ctx, id, session.Progress(starting).WithStatus(domain.SessionImporting))
		return err
	}
	run := func(ctx context.Context) error {
		return s.runImport(ctx, sess, tmpl)
	}
	if err := s.jobs.Start(ctx, id, begin, run); err != nil {
		return nil, err
	}

	logger.Info("imports: import started", "session_id", id, "template", tmpl.Name, "rows", len(sess.Records))
	return &StartResult{
		SessionID: id,
		Status:    domain.SessionImporting,
		Message:   "Import process started",
		Progress:  starting,
	}, nil
}

func (s *Service) runImport(ctx context.Context, sess *domain.ImportSession, tmpl *validation.Template) (err error) {
	id := sess.SessionID
	last := domain.ImportProgress{Total: len(sess.Records), Stage: domain.StageStarting}
	// A panic must still leave the session in error, not importing.
	defer func() {
		if p := recover(); p != nil {
			err = s.fail(ctx, id, fmt.Errorf("import panicked: %v", p), &last)
		}
	}()

	store, release, err := s.refs.Open(ctx)
	if err != nil {
		return s.fail(ctx, id, interrupted(fmt.Errorf("open reference store: %w", err)), &last)
	}
	defer release()

	req := importer.Request{
		Template:  tmpl,
		Records:   sess.Records,
		CountryID: sess.CountryID,
		CycleID:   sess.FinancialCycleID,
	}
	res, err := s.engine.Run(ctx, store, req, func(p domain.ImportProgress) {
		last = p
		if _, err := s.sessions.Update(ctx, id, session.Progress(p)); err != nil {
			logger.Warn("imports: progress write failed", "session_id", id, "error", err)
		}
	})
	if err != nil {
		return s.fail(ctx, id, interrupted(err), &last)
	}

	done := domain.ImportProgress{
		Current:    res.Processed,
		Total:      len(sess.Records),
		Percentage: 100,
		Stage:      domain.StageCompleted,
	}
	patch := session.Patch{
		ImportProgress: &done,
		ImportErrors:   &res.Errors,
		ImportResults:  &res.Results,
	}.WithStatus(domain.SessionImported)

	ctx = context.WithoutCancel(ctx)
	updated, err := s.sessions.Update(ctx, id, patch)
	if err != nil {
		// The result may not fit the session store; record the failure instead.
		return s.fail(ctx, id, fmt.Errorf("save import result: %w", err), &last)
	}
	s.archive(ctx, updated)
	return nil
}

// interrupted marks errors caused by Cancel or Shutdown.
func interrupted(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("import cancelled: %w", err)
	}
	return err
}

// Progress returns the pollable import state of a session.
func (s *Service) Progress(ctx context.Context, id string) (*ProgressView, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &ProgressView{
		Progress: sess.ImportProgress,
		Status:   sess.Status,
		Errors:   sess.ImportErrors,
		Results:  sess.ImportResults,
		Error:    sess.Error,
	}
	if job, ok := s.jobs.Job(id); ok {
		view.Job = &job
	}
	return view, nil
}

// Cancel stops the running import of a session. The session moves to error
// once the job exits.
func (s *Service) Cancel(_ context.Context, id string) error {
	if !s.jobs.Cancel(id) {
		return ErrNotRunning
	}
	logger.Info("imports: import cancel requested", "session_id", id)
	return nil
}

// FieldMapping returns the header to field id mapping of a template.
func (s *Service) FieldMapping(template string) (map[string]string, error) {
	tmpl, err := validation.LookupTemplate(template)
	if err != nil {
		return nil, err
	}
	return tmpl.FieldMapping(), nil
}

// fail moves a session to error and returns cause. The write survives a
// cancelled ctx.
func (s *Service) fail(ctx context.Context, id string, cause error, progress *domain.ImportProgress) error {
	ctx = context.WithoutCancel(ctx)
	patch := session.Failed(cause)
	if progress != nil {
		p := *progress
		p.Stage = domain.StageFailed
		patch.ImportProgress = &p
		errs := []domain.ImportError{{Index: -1, Error: cause.Error(), Type: "fatal"}}
		patch.ImportErrors = &errs
	}
	updated, err := s.sessions.Update(ctx, id, patch)
	if err != nil {
		logger.Error("imports: could not record failure", "session_id", id, "cause", cause, "error", err)
		return cause
	}
	logger.Warn("imports: session failed", "session_id", id, "error", cause)
	s.archive(ctx, updated)
	return cause
}

func (s *Service) archive(ctx context.Context, sess *domain.ImportSession) {
	if s.archiver == nil || !sess.Status.IsTerminal() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.archiver.Archive(ctx, sess); err != nil {
		logger.Warn("imports: archive failed", "session_id", sess.SessionID, "error", err)
	}
}
