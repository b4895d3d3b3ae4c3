package workout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/2beens/gymsession/internal/telemetry/metrics"
	"github.com/2beens/gymsession/internal/telemetry/tracing"
	"github.com/2beens/gymsession/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=controller_mocks_test.go -package=workout_test

type sessionBackend interface {
	StartSession(ctx context.Context, routineDetailID int) (int, error)
	GetExerciseDetail(ctx context.Context, sessionID, order int) (*ExerciseDetail, error)
	SaveSets(ctx context.Context, sessionID, workoutExerciseID int, req SaveSetsRequest) error
	ReorderNextExercises(ctx context.Context, sessionID int, workoutExerciseIDs []int) error
	DiscardSession(ctx context.Context, sessionID int) error
	FinishSession(ctx context.Context, sessionID int) error
	GetSessionSummary(ctx context.Context, sessionID int) (*SessionSummary, error)
	GetSessionDetail(ctx context.Context, sessionID int) (*SessionDetail, error)
}

type progressionAdvisor interface {
	Recommend(ctx context.Context, params RecommendationParams) (*ProgressionRecommendation, error)
}

type ControllerParams struct {
	Backend        sessionBackend
	Advisor        progressionAdvisor // optional
	MetricsManager *metrics.Manager   // optional
	TickPeriod     time.Duration
	Now            func() time.Time
}

// Controller runs one workout session, one exercise at a time.
//
// All state is guarded by mu. Backend calls are made with mu released;
// every load bumps gen, and a backend answer is only applied if gen did
// not move in the meantime.
type Controller struct {
	backend        sessionBackend
	advisor        progressionAdvisor
	metricsManager *metrics.Manager
	now            func() time.Time
	clock          *Clock

	mu                    sync.Mutex
	closed                bool
	state                 State
	outcome               Outcome
	sessionID             int
	order                 int
	gen                   uint64
	detail                *ExerciseDetail
	ledger                *Ledger
	notes                 string
	sequencer             *Sequencer
	recommendation        *ProgressionRecommendation
	recommendationLoading bool
	exitRequested         bool
	summary               *SessionSummary
	lastErr               *OpError

	advisorCancel context.CancelFunc
	advisorWg     sync.WaitGroup
}

func NewController(params ControllerParams) *Controller {
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		backend:        params.Backend,
		advisor:        params.Advisor,
		metricsManager: params.MetricsManager,
		now:            now,
		clock:          NewClock(params.TickPeriod, now),
		state:          StateIdle,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

func (c *Controller) SessionID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Start creates a new session for the routine and loads its first exercise.
func (c *Controller) Start(ctx context.Context, routineDetailID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.workout.start")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.Int("routine.detail.id", routineDetailID))

	if routineDetailID <= 0 {
		return fmt.Errorf("routine detail %d: %w", routineDetailID, ErrInvalidRoutine)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionTerminated
	}
	if c.state != StateIdle || c.sessionID != 0 {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.state = StateLoading
	c.lastErr = nil
	c.mu.Unlock()

	sessionID, err := c.backend.StartSession(ctx, routineDetailID)
	if err == nil && sessionID <= 0 {
		err = fmt.Errorf("backend returned session id %d: %w", sessionID, ErrInvalidSession)
	}

	c.mu.Lock()
	if err != nil {
		c.state = StateIdle
		opErr := newOpError(OpStart, true, err)
		c.lastErr = opErr
		c.mu.Unlock()
		return opErr
	}
	c.sessionID = sessionID
	c.mu.Unlock()

	if c.metricsManager != nil {
		c.metricsManager.CounterSessionsStarted.Inc()
	}
	log.Debugf("workout session %d started from routine %d", sessionID, routineDetailID)

	return c.LoadExercise(ctx, sessionID, 1)
}

// LoadExercise puts the exercise at the given order of the session in view.
// Any previous view is dropped right away; answers still in flight for it
// are discarded when they arrive.
func (c *Controller) LoadExercise(ctx context.Context, sessionID, order int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.workout.load")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(
		attribute.Int("session.id", sessionID),
		attribute.Int("exercise.order", order),
	)

	c.mu.Lock()
	if c.closed || c.state == StateTerminated {
		c.mu.Unlock()
		return ErrSessionTerminated
	}
	if sessionID <= 0 || order <= 0 {
		c.invalidateLocked()
		opErr := newOpError(OpValidate, false, fmt.Errorf("session %d, exercise %d: %w", sessionID, order, ErrInvalidSession))
		c.lastErr = opErr
		c.mu.Unlock()
		return opErr
	}
	if c.sessionID != 0 && c.sessionID != sessionID {
		c.mu.Unlock()
		return fmt.Errorf("session %d, bound to %d: %w", sessionID, c.sessionID, ErrSessionMismatch)
	}
	if c.state == StateFinishing || c.state == StateDiscarding || (c.state == StateLoading && c.sessionID == 0) {
		c.mu.Unlock()
		return ErrBusy
	}

	c.sessionID = sessionID
	c.order = order
	gen := c.resetViewLocked(StateLoading)
	c.mu.Unlock()

	detail, err := c.backend.GetExerciseDetail(ctx, sessionID, order)
	if err == nil && detail == nil {
		err = errors.New("empty exercise detail")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.state != StateLoading {
		c.countStale(OpLoad)
		return ErrStaleResponse
	}
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			c.invalidateLocked()
			opErr := newOpError(OpValidate, false, err)
			c.lastErr = opErr
			return opErr
		}
		opErr := newOpError(OpLoad, true, err)
		c.lastErr = opErr
		return opErr
	}

	c.activateLocked(ctx, gen, detail)
	return nil
}

// Resync re-reads the upcoming exercises from the backend, keeping the
// sets entered so far.
func (c *Controller) Resync(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.workout.resync")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	c.mu.Lock()
	if err := c.checkActiveLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	gen, sessionID, order := c.gen, c.sessionID, c.order
	c.mu.Unlock()

	detail, err := c.backend.GetExerciseDetail(ctx, sessionID, order)
	if err == nil && detail == nil {
		err = errors.New("empty exercise detail")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != StateActive {
		c.countStale(OpLoad)
		return ErrStaleResponse
	}
	if err != nil {
		opErr := newOpError(OpLoad, true, err)
		c.lastErr = opErr
		return opErr
	}

	if detail.SessionID == 0 {
		detail.SessionID = sessionID
	}
	c.detail.NextExercises = detail.NextExercises
	c.detail.Progress = detail.Progress
	c.sequencer = NewSequencer(c.detail)
	c.lastErr = nil
	return nil
}

type AdvanceResult struct {
	// Completed is set when the saved exercise was the last one.
	Completed bool
	NextOrder int
	// Summary is nil if it could not be fetched; Controller.Summary retries.
	Summary *SessionSummary
}

// SaveAndAdvance submits the sets of the exercise in view, then moves to
// the next exercise or, after the last one, to the session summary.
// A failed save keeps the exercise in view with all entered sets.
func (c *Controller) SaveAndAdvance(ctx context.Context) (_ AdvanceResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.workout.save-and-advance")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	c.mu.Lock()
	if err := c.checkActiveLocked(); err != nil {
		c.mu.Unlock()
		return AdvanceResult{}, err
	}
	gen := c.gen
	sessionID := c.sessionID
	workoutExerciseID := c.detail.WorkoutExerciseID
	req := SaveSetsRequest{Sets: c.ledger.Sets()}
	if notes := strings.TrimSpace(c.notes); notes != "" {
		req.Notes = pkg.Some(notes)
	}
	isLast := c.sequencer.IsLast()
	nextOrder := c.sequencer.NextOrder()
	c.state = StateAdvancing
	c.lastErr = nil
	c.mu.Unlock()

	span.SetAttributes(
		attribute.Int("session.id", sessionID),
		attribute.Int("workout.exercise.id", workoutExerciseID),
	)

	err = c.backend.SaveSets(ctx, sessionID, workoutExerciseID, req)

	c.mu.Lock()
	if gen != c.gen || c.state != StateAdvancing {
		c.countStale(OpSave)
		c.mu.Unlock()
		return AdvanceResult{}, ErrStaleResponse
	}
	if err != nil {
		c.state = StateActive
		opErr := newOpError(OpSave, true, err)
		c.lastErr = opErr
		c.countSave("failed")
		c.mu.Unlock()
		return AdvanceResult{}, opErr
	}
	c.countSave("ok")

	if isLast {
		c.terminateLocked(OutcomeCompleted)
		c.mu.Unlock()

		summary, err := c.Summary(ctx)
		if err != nil {
			log.Warnf("session %d completed, summary not available yet: %s", sessionID, err)
			return AdvanceResult{Completed: true}, nil
		}
		return AdvanceResult{Completed: true, Summary: summary}, nil
	}
	c.mu.Unlock()

	if err := c.LoadExercise(ctx, sessionID, nextOrder); err != nil {
		return AdvanceResult{NextOrder: nextOrder}, err
	}
	return AdvanceResult{NextOrder: nextOrder}, nil
}

func (c *Controller) ToggleSet(index int) error {
	return c.editLedger(func(l *Ledger) error {
		return l.ToggleCompleted(index)
	})
}

func (c *Controller) SetReps(index int, reps pkg.Optional[int]) error {
	return c.editLedger(func(l *Ledger) error {
		return l.SetReps(index, reps)
	})
}

func (c *Controller) SetWeight(index int, weightKg pkg.Optional[float64]) error {
	return c.editLedger(func(l *Ledger) error {
		return l.SetWeight(index, weightKg)
	})
}

// UpdateSet sets reps and weight of one set; neither is applied unless both are valid.
func (c *Controller) UpdateSet(index int, reps pkg.Optional[int], weightKg pkg.Optional[float64]) error {
	return c.editLedger(func(l *Ledger) error {
		return l.Update(index, reps, weightKg)
	})
}

func (c *Controller) SetNotes(notes string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActiveLocked(); err != nil {
		return err
	}
	c.notes = notes
	return nil
}

// ApplySuggestedWeight fills the empty weights with the recommended one.
func (c *Controller) ApplySuggestedWeight() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActiveLocked(); err != nil {
		return 0, err
	}
	if c.recommendation == nil {
		return 0, ErrNoRecommendation
	}
	w, ok := c.recommendation.SuggestedWeightKg.Get()
	if !ok {
		return 0, ErrNoRecommendation
	}
	return c.ledger.ApplySuggestedWeight(w), nil
}

func (c *Controller) MoveUpcomingUp(index int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActiveLocked(); err != nil {
		return false, err
	}
	return c.sequencer.MoveUp(index), nil
}

func (c *Controller) MoveUpcomingDown(index int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActiveLocked(); err != nil {
		return false, err
	}
	return c.sequencer.MoveDown(index), nil
}

// CommitReorder persists the current order of the upcoming exercises and
// then re-reads them, so they carry the orders the backend assigned.
// On failure the local order stays and the view is flagged for resync.
func (c *Controller) CommitReorder(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.workout.reorder")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	c.mu.Lock()
	if err := c.checkActiveLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	gen := c.gen
	seq := c.sequencer
	c.mu.Unlock()

	err = seq.CommitReorder(ctx, c.backend)

	c.mu.Lock()
	if gen != c.gen {
		c.countStale(OpReorder)
		c.mu.Unlock()
		return ErrStaleResponse
	}
	if err != nil {
		opErr := newOpError(OpReorder, true, err)
		c.lastErr = opErr
		c.mu.Unlock()
		return opErr
	}
	c.lastErr = nil
	sessionID := c.sessionID
	c.mu.Unlock()

	// the new order is saved; a failed refresh surfaces as a load error and Resync retries it
	if err := c.Resync(ctx); err != nil && !errors.Is(err, ErrStaleResponse) {
		log.Warnf("session %d: refresh after reorder: %s", sessionID, err)
	}
	return nil
}

// RequestExit opens the exit confirmation; Discard needs it.
func (c *Controller) RequestExit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state == StateTerminated {
		return ErrSessionTerminated
	}
	if c.sessionID == 0 {
		return ErrNoActiveExercise
	}
	c.exitRequested = true
	return nil
}

func (c *Controller) CancelExit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exitRequested = false
}

// Discard deletes the session on the backend. It requires a prior
// RequestExit and changes nothing locally unless the backend confirms.
func (c *Controller) Discard(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.workout.discard")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	c.mu.Lock()
	if err := c.checkExitableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if !c.exitRequested {
		c.mu.Unlock()
		return ErrConfirmationRequired
	}
	prevState := c.state
	sessionID := c.sessionID
	c.state = StateDiscarding
	c.mu.Unlock()

	err = c.backend.DiscardSession(ctx, sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = prevState
		opErr := newOpError(OpDiscard, true, err)
		c.lastErr = opErr
		return opErr
	}
	c.terminateLocked(OutcomeDiscarded)
	return nil
}

// Finish closes the session early, keeping what was saved so far.
func (c *Controller) Finish(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.workout.finish")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	c.mu.Lock()
	if err := c.checkExitableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	prevState := c.state
	sessionID := c.sessionID
	c.state = StateFinishing
	c.mu.Unlock()

	err = c.backend.FinishSession(ctx, sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = prevState
		opErr := newOpError(OpFinish, true, err)
		c.lastErr = opErr
		return opErr
	}
	c.terminateLocked(OutcomeFinished)
	return nil
}

// Summary returns the summary of a completed or finished session,
// fetching it from the backend the first time.
func (c *Controller) Summary(ctx context.Context) (_ *SessionSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.workout.summary")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	c.mu.Lock()
	if c.state != StateTerminated || c.outcome == OutcomeDiscarded {
		c.mu.Unlock()
		return nil, ErrSummaryUnavailable
	}
	if c.summary != nil {
		summary := c.summary
		c.mu.Unlock()
		return summary, nil
	}
	sessionID := c.sessionID
	c.mu.Unlock()

	summary, err := c.backend.GetSessionSummary(ctx, sessionID)
	if err == nil && summary == nil {
		err = errors.New("empty session summary")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		opErr := newOpError(OpSummary, true, err)
		c.lastErr = opErr
		return nil, opErr
	}
	c.summary = summary
	c.lastErr = nil
	return summary, nil
}

// Close stops the clock and waits for background work. Idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	c.cancelAdvisorLocked()
	c.mu.Unlock()

	c.clock.Stop()
	c.advisorWg.Wait()
}

func (c *Controller) editLedger(edit func(l *Ledger) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActiveLocked(); err != nil {
		return err
	}
	return edit(c.ledger)
}

func (c *Controller) checkActiveLocked() error {
	switch {
	case c.closed || c.state == StateTerminated:
		return ErrSessionTerminated
	case c.state.busy():
		return ErrBusy
	case c.state != StateActive:
		return ErrNoActiveExercise
	}
	return nil
}

func (c *Controller) checkExitableLocked() error {
	switch {
	case c.closed || c.state == StateTerminated:
		return ErrSessionTerminated
	case c.state.busy():
		return ErrBusy
	case c.sessionID == 0 || (c.state != StateActive && c.state != StateLoading):
		return ErrNoActiveExercise
	}
	return nil
}

// resetViewLocked drops the exercise in view and returns the new generation.
func (c *Controller) resetViewLocked(state State) uint64 {
	c.gen++
	c.state = state
	c.cancelAdvisorLocked()
	c.clock.Stop()
	c.detail = nil
	c.ledger = nil
	c.notes = ""
	c.sequencer = nil
	c.recommendation = nil
	c.recommendationLoading = false
	c.exitRequested = false
	c.lastErr = nil
	return c.gen
}

func (c *Controller) invalidateLocked() {
	c.resetViewLocked(StateInvalid)
}

func (c *Controller) activateLocked(ctx context.Context, gen uint64, detail *ExerciseDetail) {
	if detail.SessionID == 0 {
		detail.SessionID = c.sessionID
	}
	if detail.ExerciseOrder <= 0 {
		detail.ExerciseOrder = c.order
	}

	c.detail = detail
	c.order = detail.ExerciseOrder
	c.ledger = NewLedger(detail.PlannedSets)
	c.sequencer = NewSequencer(detail)

	origin := detail.Progress.StartedAt
	if origin.IsZero() {
		log.Warnf("session %d: no start time, clock anchored to now", c.sessionID)
		origin = c.now()
	}
	c.clock.Start(origin)
	c.state = StateActive

	log.Debugf("session %d: exercise %d [%s] in view, %d upcoming",
		c.sessionID, c.order, detail.ExerciseName, len(detail.NextExercises))

	exerciseID, ok := detail.ExerciseID.Get()
	if !ok || c.advisor == nil {
		return
	}

	params := RecommendationParams{
		ExerciseID:  exerciseID,
		PlannedSets: detail.PlannedSets,
		RepsMin:     detail.PlannedRepsMin,
		RepsMax:     detail.PlannedRepsMax,
	}
	// outlives the request that loaded the exercise
	advisorCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.advisorCancel = cancel
	c.recommendationLoading = true
	c.advisorWg.Add(1)
	go c.loadRecommendation(advisorCtx, gen, params)
}

func (c *Controller) loadRecommendation(ctx context.Context, gen uint64, params RecommendationParams) {
	defer c.advisorWg.Done()

	rec, err := c.advisor.Recommend(ctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.countStale(OpAdvisor)
		return
	}
	c.recommendationLoading = false
	if err == nil && rec == nil {
		err = ErrNoRecommendation
	}
	if err != nil {
		log.Warnf("session %d: no recommendation for exercise %d: %s", c.sessionID, params.ExerciseID, err)
		if c.metricsManager != nil {
			c.metricsManager.CounterAdvisorFailures.Inc()
		}
		return
	}

	c.recommendation = rec
	if w, ok := rec.SuggestedWeightKg.Get(); ok && w > 0 && c.ledger != nil && c.ledger.Len() > 0 {
		changed := c.ledger.ApplySuggestedWeight(w)
		log.Debugf("session %d: suggested weight %.2f applied to %d sets", c.sessionID, w, changed)
	}
}

func (c *Controller) terminateLocked(outcome Outcome) {
	c.resetViewLocked(StateTerminated)
	c.outcome = outcome
	if c.metricsManager != nil {
		c.metricsManager.CounterSessionsTerminated.WithLabelValues(outcome.String()).Inc()
	}
	log.Debugf("session %d terminated: %s", c.sessionID, outcome)
}

func (c *Controller) cancelAdvisorLocked() {
	if c.advisorCancel != nil {
		c.advisorCancel()
		c.advisorCancel = nil
	}
}

func (c *Controller) countStale(op string) {
	log.Debugf("session %d: dropped stale %s response", c.sessionID, op)
	if c.metricsManager != nil {
		c.metricsManager.CounterStaleResponses.WithLabelValues(op).Inc()
	}
}

func (c *Controller) countSave(result string) {
	if c.metricsManager != nil {
		c.metricsManager.CounterSetSaves.WithLabelValues(result).Inc()
	}
}
