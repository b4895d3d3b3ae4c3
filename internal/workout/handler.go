package workout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/2beens/gymsession/internal/telemetry/tracing"
	"github.com/2beens/gymsession/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type resumeStore interface {
	Save(ctx context.Context, sessionID, order int) error
	Get(ctx context.Context, sessionID int) (int, error)
	Delete(ctx context.Context, sessionID int) error
	List(ctx context.Context) ([]int, error)
}

type StartRequest struct {
	RoutineDetailID int `json:"routineDetailId"`
}

// UpdateSetRequest carries both values of a set row; null clears a value.
type UpdateSetRequest struct {
	Reps     pkg.Optional[int]     `json:"reps"`
	WeightKg pkg.Optional[float64] `json:"weightKg"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

type AdvanceResponse struct {
	Completed bool `json:"completed"`
	NextOrder int  `json:"nextOrder,omitempty"`
	View      View `json:"view"`
}

type MoveResponse struct {
	Moved bool `json:"moved"`
	View  View `json:"view"`
}

type ApplyWeightResponse struct {
	Changed int  `json:"changed"`
	View    View `json:"view"`
}

type ResumableResponse struct {
	Open      []int `json:"open"`
	Resumable []int `json:"resumable"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
	View      *View  `json:"view,omitempty"`
}

// SummaryResponse is a session summary plus its rendered comparison with
// the previous session of the same routine.
type SummaryResponse struct {
	*SessionSummary
	DurationImproved bool   `json:"durationImproved"`
	XPImproved       bool   `json:"xpImproved"`
	DurationDiff     string `json:"durationDiff,omitempty"`
}

func NewSummaryResponse(summary *SessionSummary) SummaryResponse {
	resp := SummaryResponse{
		SessionSummary:   summary,
		DurationImproved: summary.DurationImproved(),
		XPImproved:       summary.XPImproved(),
	}
	if summary.PreviousComparison != nil {
		resp.DurationDiff = FormatDurationDiff(summary.PreviousComparison.DurationDifferenceSeconds)
	}
	return resp
}

type DetailResponse struct {
	*SessionDetail
	TotalVolume string `json:"totalVolume"`
	Duration    string `json:"duration"`
}

// Handler exposes the session controllers over HTTP, for a thin UI client.
type Handler struct {
	registry *Registry
	resume   resumeStore
}

func NewHandler(registry *Registry, resume resumeStore) *Handler {
	return &Handler{
		registry: registry,
		resume:   resume,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router, startMiddleware ...mux.MiddlewareFunc) {
	var startHandler http.Handler = http.HandlerFunc(handler.HandleStart)
	for i := len(startMiddleware) - 1; i >= 0; i-- {
		startHandler = startMiddleware[i](startHandler)
	}

	workoutsRouter := r.PathPrefix("/workouts").Subrouter()
	workoutsRouter.Handle("/start", startHandler).Methods("POST", "OPTIONS")
	workoutsRouter.HandleFunc("/resumable", handler.HandleResumable).Methods("GET", "OPTIONS")
	workoutsRouter.HandleFunc("/{sessionId}", handler.HandleView).Methods("GET", "OPTIONS")
	workoutsRouter.HandleFunc("/{sessionId}/exercise/{order}", handler.HandleLoadExercise).Methods("GET", "OPTIONS")
	workoutsRouter.HandleFunc("/{sessionId}/sets/{index}", handler.HandleUpdateSet).Methods("PUT", "OPTIONS")
	workoutsRouter.HandleFunc("/{sessionId}/sets/{index}/toggle", handler.HandleToggleSet).Methods("POST", "OPTIONS")
	workoutsRouter.HandleFunc("/{sessionId}/notes", handler.HandleNotes).Methods("PUT", "OPTIONS")
	workoutsRouter.HandleFunc("/{sessionId}/suggested-weight", handler.HandleApplySuggestedWeight).Methods("POST", "OPTIONS")
	workoutsRouter.HandleFunc("/{sessionId}/next", handler.HandleSaveAndAdvance).Methods("POST", "OPTIONS")
	workoutsRouter.HandleFunc("/{sessionId}/upcoming/{index}/{direction:up|down}", handler.HandleMoveUpcoming).Methods("POST", "OPTIONS")
	workoutsRouter.HandleFunc("/{sessionId}/upcoming/commit", handler.HandleCommitReorder).Methods("POST", "OPTIONS")
	workoutsRouter.HandleFunc("/{sessionId}/resync", handler.HandleResync).Methods("POST", "OPTIONS")
	workoutsRouter.HandleFunc("/{sessionId}/exit", handler.HandleRequestExit).Methods("POST", "OPTIONS")
	workoutsRouter.HandleFunc("/{sessionId}/exit", handler.HandleCancelExit).Methods("DELETE")
	workoutsRouter.HandleFunc("/{sessionId}/discard", handler.HandleDiscard).Methods("POST", "OPTIONS")
	workoutsRouter.HandleFunc("/{sessionId}/finish", handler.HandleFinish).Methods("POST", "OPTIONS")
	workoutsRouter.HandleFunc("/{sessionId}/summary", handler.HandleSummary).Methods("GET", "OPTIONS")
	workoutsRouter.HandleFunc("/{sessionId}/detail", handler.HandleDetail).Methods("GET", "OPTIONS")
}

func (handler *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.start")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("start workout, unmarshal json params: %s", err)
		http.Error(w, "error, invalid start request", http.StatusBadRequest)
		return
	}

	c, err := handler.registry.Start(ctx, req.RoutineDetailID)
	if c == nil {
		handler.writeError(w, err, nil)
		return
	}
	if err != nil {
		// session exists, its first exercise can be loaded again
		handler.writeError(w, err, c)
		return
	}

	handler.saveResumePoint(ctx, c)
	pkg.WriteJSON(w, c.View(), http.StatusCreated)
}

func (handler *Handler) HandleResumable(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.resumable")
	defer span.End()

	resumable, err := handler.resume.List(ctx)
	if err != nil {
		log.Errorf("list resumable sessions: %s", err)
		http.Error(w, "error, failed to list resumable sessions", http.StatusInternalServerError)
		return
	}
	if resumable == nil {
		resumable = []int{}
	}

	pkg.WriteJSONOK(w, ResumableResponse{
		Open:      handler.registry.SessionIDs(),
		Resumable: resumable,
	})
}

func (handler *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.view")
	defer span.End()

	c, ok := handler.controllerFor(ctx, w, r)
	if !ok {
		return
	}
	pkg.WriteJSONOK(w, c.View())
}

func (handler *Handler) HandleLoadExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.load")
	defer span.End()

	sessionID, ok := intVar(w, r, "sessionId")
	if !ok {
		return
	}
	order, ok := intVar(w, r, "order")
	if !ok {
		return
	}

	c, err := handler.registry.Open(ctx, sessionID, order)
	if err != nil {
		handler.writeError(w, err, c)
		return
	}

	handler.saveResumePoint(ctx, c)
	pkg.WriteJSONOK(w, c.View())
}

func (handler *Handler) HandleUpdateSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.set.update")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	c, ok := handler.controllerFor(ctx, w, r)
	if !ok {
		return
	}
	index, ok := intVar(w, r, "index")
	if !ok {
		return
	}

	var req UpdateSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("update set, unmarshal json params: %s", err)
		http.Error(w, "error, invalid set values", http.StatusBadRequest)
		return
	}

	if err := c.UpdateSet(index, req.Reps, req.WeightKg); err != nil {
		handler.writeError(w, err, c)
		return
	}

	pkg.WriteJSONOK(w, c.View())
}

func (handler *Handler) HandleToggleSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.set.toggle")
	defer span.End()

	c, ok := handler.controllerFor(ctx, w, r)
	if !ok {
		return
	}
	index, ok := intVar(w, r, "index")
	if !ok {
		return
	}

	if err := c.ToggleSet(index); err != nil {
		handler.writeError(w, err, c)
		return
	}
	pkg.WriteJSONOK(w, c.View())
}

func (handler *Handler) HandleNotes(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.notes")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	c, ok := handler.controllerFor(ctx, w, r)
	if !ok {
		return
	}

	var req NotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("set notes, unmarshal json params: %s", err)
		http.Error(w, "error, invalid notes", http.StatusBadRequest)
		return
	}

	if err := c.SetNotes(req.Notes); err != nil {
		handler.writeError(w, err, c)
		return
	}
	pkg.WriteJSONOK(w, c.View())
}

func (handler *Handler) HandleApplySuggestedWeight(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.suggested-weight")
	defer span.End()

	c, ok := handler.controllerFor(ctx, w, r)
	if !ok {
		return
	}

	changed, err := c.ApplySuggestedWeight()
	if err != nil {
		handler.writeError(w, err, c)
		return
	}
	pkg.WriteJSONOK(w, ApplyWeightResponse{
		Changed: changed,
		View:    c.View(),
	})
}

func (handler *Handler) HandleSaveAndAdvance(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.next")
	defer span.End()

	c, ok := handler.controllerFor(ctx, w, r)
	if !ok {
		return
	}

	res, err := c.SaveAndAdvance(ctx)
	if err != nil {
		if res.NextOrder != 0 {
			// the sets are saved, only the next exercise failed to load
			handler.saveResumeOrder(ctx, c.SessionID(), res.NextOrder)
		}
		handler.writeError(w, err, c)
		return
	}

	resp := AdvanceResponse{
		Completed: res.Completed,
		NextOrder: res.NextOrder,
		View:      c.View(),
	}
	if res.Completed {
		handler.release(ctx, c)
	} else {
		handler.saveResumePoint(ctx, c)
	}
	pkg.WriteJSONOK(w, resp)
}

func (handler *Handler) HandleMoveUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.upcoming.move")
	defer span.End()

	c, ok := handler.controllerFor(ctx, w, r)
	if !ok {
		return
	}
	index, ok := intVar(w, r, "index")
	if !ok {
		return
	}

	var moved bool
	var err error
	if mux.Vars(r)["direction"] == "up" {
		moved, err = c.MoveUpcomingUp(index)
	} else {
		moved, err = c.MoveUpcomingDown(index)
	}
	if err != nil {
		handler.writeError(w, err, c)
		return
	}

	pkg.WriteJSONOK(w, MoveResponse{
		Moved: moved,
		View:  c.View(),
	})
}

func (handler *Handler) HandleCommitReorder(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.upcoming.commit")
	defer span.End()

	c, ok := handler.controllerFor(ctx, w, r)
	if !ok {
		return
	}

	if err := c.CommitReorder(ctx); err != nil {
		handler.writeError(w, err, c)
		return
	}
	pkg.WriteJSONOK(w, c.View())
}

func (handler *Handler) HandleResync(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.resync")
	defer span.End()

	c, ok := handler.controllerFor(ctx, w, r)
	if !ok {
		return
	}

	if err := c.Resync(ctx); err != nil {
		handler.writeError(w, err, c)
		return
	}
	pkg.WriteJSONOK(w, c.View())
}

func (handler *Handler) HandleRequestExit(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.exit.request")
	defer span.End()

	c, ok := handler.controllerFor(ctx, w, r)
	if !ok {
		return
	}

	if err := c.RequestExit(); err != nil {
		handler.writeError(w, err, c)
		return
	}
	pkg.WriteJSONOK(w, c.View())
}

func (handler *Handler) HandleCancelExit(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.exit.cancel")
	defer span.End()

	c, ok := handler.controllerFor(ctx, w, r)
	if !ok {
		return
	}

	c.CancelExit()
	pkg.WriteJSONOK(w, c.View())
}

func (handler *Handler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.discard")
	defer span.End()

	c, ok := handler.controllerFor(ctx, w, r)
	if !ok {
		return
	}

	if err := c.Discard(ctx); err != nil {
		handler.writeError(w, err, c)
		return
	}

	view := c.View()
	handler.release(ctx, c)
	pkg.WriteJSONOK(w, view)
}

func (handler *Handler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.finish")
	defer span.End()

	c, ok := handler.controllerFor(ctx, w, r)
	if !ok {
		return
	}

	if err := c.Finish(ctx); err != nil {
		handler.writeError(w, err, c)
		return
	}
	if _, err := c.Summary(ctx); err != nil {
		// still finished, the summary endpoint can be asked again
		log.Warnf("session %d finished, summary not available: %s", c.SessionID(), err)
	}

	view := c.View()
	handler.release(ctx, c)
	pkg.WriteJSONOK(w, view)
}

func (handler *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.summary")
	defer span.End()

	sessionID, ok := intVar(w, r, "sessionId")
	if !ok {
		return
	}

	summary, err := handler.registry.Summary(ctx, sessionID)
	if err != nil {
		handler.writeError(w, err, nil)
		return
	}
	pkg.WriteJSONOK(w, NewSummaryResponse(summary))
}

func (handler *Handler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.detail")
	defer span.End()

	sessionID, ok := intVar(w, r, "sessionId")
	if !ok {
		return
	}

	detail, err := handler.registry.Detail(ctx, sessionID)
	if err != nil {
		handler.writeError(w, err, nil)
		return
	}
	pkg.WriteJSONOK(w, DetailResponse{
		SessionDetail: detail,
		TotalVolume:   FormatVolume(detail.TotalWeightKg),
		Duration:      FormatDuration(detail.DurationMinutes),
	})
}

// controllerFor finds the controller of the session in the request path.
// Sessions not held in memory are restored from their resume point.
func (handler *Handler) controllerFor(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Controller, bool) {
	sessionID, ok := intVar(w, r, "sessionId")
	if !ok {
		return nil, false
	}

	if c, ok := handler.registry.Get(sessionID); ok {
		return c, true
	}

	order, err := handler.resume.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrNoResumePoint) {
			log.Errorf("get resume point for session %d: %s", sessionID, err)
		}
		http.Error(w, "error, session not open", http.StatusNotFound)
		return nil, false
	}

	log.Debugf("resuming session %d at exercise %d", sessionID, order)
	c, err := handler.registry.Open(ctx, sessionID, order)
	if c == nil {
		handler.writeError(w, err, nil)
		return nil, false
	}
	return c, true
}

func (handler *Handler) saveResumePoint(ctx context.Context, c *Controller) {
	view := c.View()
	if view.State != StateActive {
		return
	}
	handler.saveResumeOrder(ctx, view.SessionID, view.Order)
}

func (handler *Handler) saveResumeOrder(ctx context.Context, sessionID, order int) {
	if err := handler.resume.Save(ctx, sessionID, order); err != nil {
		log.Errorf("save resume point for session %d: %s", sessionID, err)
	}
}

// release drops a terminated session from memory and from the resume store.
func (handler *Handler) release(ctx context.Context, c *Controller) {
	sessionID := c.SessionID()
	handler.registry.Remove(sessionID)
	if err := handler.resume.Delete(ctx, sessionID); err != nil {
		log.Errorf("delete resume point for session %d: %s", sessionID, err)
	}
}

func (handler *Handler) writeError(w http.ResponseWriter, err error, c *Controller) {
	statusCode := errorStatusCode(err)
	resp := ErrorResponse{
		Error: err.Error(),
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		resp.Error = opErr.Message()
		resp.Retryable = opErr.Retryable
	}
	if c != nil {
		view := c.View()
		resp.View = &view
	}

	if statusCode >= http.StatusInternalServerError {
		log.Errorf("workout request failed: %s", err)
	} else {
		log.Debugf("workout request rejected: %s", err)
	}
	pkg.WriteJSON(w, resp, statusCode)
}

func errorStatusCode(err error) int {
	var opErr *OpError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidSession),
		errors.Is(err, ErrInvalidRoutine),
		errors.Is(err, ErrSessionMismatch),
		errors.Is(err, ErrSetIndexOutOfRange),
		errors.Is(err, ErrInvalidSetValue):
		return http.StatusBadRequest
	case errors.Is(err, ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, ErrSessionTerminated):
		return http.StatusGone
	case errors.Is(err, ErrBusy),
		errors.Is(err, ErrStaleResponse),
		errors.Is(err, ErrAlreadyStarted),
		errors.Is(err, ErrNoActiveExercise),
		errors.Is(err, ErrNoRecommendation),
		errors.Is(err, ErrSummaryUnavailable):
		return http.StatusConflict
	case errors.As(err, &opErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func intVar(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	value := mux.Vars(r)[name]
	if value == "" {
		http.Error(w, "error, "+name+" empty", http.StatusBadRequest)
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		http.Error(w, "error, "+name+" NaN", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
