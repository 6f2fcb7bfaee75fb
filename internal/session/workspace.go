package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/feed"
	"github.com/xavierca1/leadscout/internal/usecase"
)

// Services are the shared collaborators every workspace is built from.
type Services struct {
	RawLeads entity.RawLeadRepositoryInterface
	Hub      feed.Subscriber
	Classify *usecase.ClassifyLeadsUseCase
	Search   *usecase.SearchLeadsUseCase
	Saved    *usecase.ListSavedLeadsUseCase
	Logger   *zap.Logger
}

// Workspace is the authenticated view of one identity: its lead feed, the
// status line and the last classification results.
type Workspace struct {
	ID   string
	User entity.User
	Feed *feed.Store

	services Services
	logger   *zap.Logger

	mu       sync.Mutex
	status   string
	results  []entity.EnrichedLead
	inFlight bool
	closed   bool
}

func NewWorkspace(user entity.User, services Services) *Workspace {
	logger := services.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Workspace{
		ID:       uuid.NewString(),
		User:     user,
		services: services,
	}
	w.logger = logger.With(zap.String("workspace_id", w.ID), zap.String("user_id", user.ID))
	w.Feed = feed.NewStore(services.RawLeads, services.Hub, w.SetStatus, w.logger)
	return w
}

func (w *Workspace) Start(ctx context.Context) {
	w.Feed.Start(ctx)
}

// Close tears down the feed. Results of a classification still running are dropped.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.Feed.Close()
	w.logger.Info("workspace closed")
}

func (w *Workspace) Status() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

func (w *Workspace) SetStatus(status string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
}

// Results returns the last classification results (nil before the first run)
// and whether a run is in flight.
func (w *Workspace) Results() ([]entity.EnrichedLead, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.results, w.inFlight
}

// Analyze classifies the current feed contents against profile. At most one
// run per workspace is outstanding. The run is not cancelled with ctx.
func (w *Workspace) Analyze(ctx context.Context, profile entity.Profile) (*usecase.ClassifyLeadsOutput, error) {
	leads, _ := w.Feed.Snapshot()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, usecase.ErrWorkspaceClosed
	}
	if w.inFlight {
		w.mu.Unlock()
		return nil, usecase.ErrClassificationInFlight
	}
	if err := usecase.ValidateProfile(profile); err != nil {
		w.status = usecase.StatusMessage("analysis failed", err)
		w.mu.Unlock()
		return nil, err
	}
	if len(leads) == 0 {
		err := usecase.ValidationError{Field: "leads", Message: usecase.MsgNoLeadsToAnalyze}
		w.status = err.Message
		w.mu.Unlock()
		return nil, err
	}
	w.inFlight = true
	w.results = nil
	w.status = usecase.MsgAnalyzing
	w.mu.Unlock()

	out, err := w.services.Classify.Execute(context.WithoutCancel(ctx), usecase.ClassifyLeadsInput{
		Profile:       profile,
		Leads:         leads,
		OperatorEmail: w.User.Email,
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false

	if w.closed {
		w.logger.Info("workspace closed during analysis, result dropped")
		return nil, usecase.ErrWorkspaceClosed
	}

	if err != nil {
		w.results = []entity.EnrichedLead{}
		w.status = usecase.StatusMessage("analysis failed", err)
		return nil, err
	}

	w.results = out.Leads
	w.status = out.Status
	return out, nil
}

func (w *Workspace) Search(ctx context.Context, input usecase.SearchLeadsInput) (*usecase.SearchLeadsOutput, error) {
	w.SetStatus(usecase.MsgSearching)

	out, err := w.services.Search.Execute(ctx, w.User.ID, input)
	if err != nil {
		w.SetStatus("search failed: " + err.Error())
		return nil, err
	}

	w.SetStatus(out.Status)
	return out, nil
}

func (w *Workspace) Saved(ctx context.Context) *usecase.ListSavedLeadsOutput {
	out := w.services.Saved.Execute(ctx)
	if out.Status != "" {
		w.SetStatus(out.Status)
	}
	return out
}
