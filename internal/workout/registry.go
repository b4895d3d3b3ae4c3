package workout

import (
	"context"
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Registry holds the controllers of the sessions currently open in this
// service instance, keyed by session id.
type Registry struct {
	params ControllerParams

	mu          sync.Mutex
	controllers map[int]*Controller
}

func NewRegistry(params ControllerParams) *Registry {
	return &Registry{
		params:      params,
		controllers: make(map[int]*Controller),
	}
}

// Start creates a session and registers its controller. The controller is
// registered as soon as the backend created the session, even if its first
// exercise failed to load, so the load can be retried.
func (r *Registry) Start(ctx context.Context, routineDetailID int) (*Controller, error) {
	c := NewController(r.params)
	err := c.Start(ctx, routineDetailID)
	if c.SessionID() == 0 {
		c.Close()
		return nil, err
	}

	r.put(c)
	return c, err
}

func (r *Registry) Get(sessionID int) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[sessionID]
	return c, ok
}

// Open loads the exercise at order into the session's controller,
// creating the controller if this instance does not hold it yet.
func (r *Registry) Open(ctx context.Context, sessionID, order int) (*Controller, error) {
	if sessionID <= 0 || order <= 0 {
		return nil, newOpError(OpValidate, false, fmt.Errorf("session %d, exercise %d: %w", sessionID, order, ErrInvalidSession))
	}

	r.mu.Lock()
	c, ok := r.controllers[sessionID]
	if !ok {
		c = NewController(r.params)
		r.controllers[sessionID] = c
		r.updateGaugeLocked()
	}
	r.mu.Unlock()

	err := c.LoadExercise(ctx, sessionID, order)
	if err != nil && c.State() == StateInvalid {
		r.Remove(sessionID)
		return nil, err
	}
	return c, err
}

func (r *Registry) Remove(sessionID int) {
	r.mu.Lock()
	c, ok := r.controllers[sessionID]
	delete(r.controllers, sessionID)
	r.updateGaugeLocked()
	r.mu.Unlock()

	if ok {
		c.Close()
		log.Debugf("session %d removed from registry", sessionID)
	}
}

func (r *Registry) SessionIDs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.controllers))
	for id := range r.controllers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// Summary returns the summary of a completed or finished session. Sessions
// not held by this instance are asked for directly.
func (r *Registry) Summary(ctx context.Context, sessionID int) (*SessionSummary, error) {
	if sessionID <= 0 {
		return nil, newOpError(OpValidate, false, fmt.Errorf("session %d: %w", sessionID, ErrInvalidSession))
	}
	if c, ok := r.Get(sessionID); ok {
		return c.Summary(ctx)
	}

	summary, err := r.params.Backend.GetSessionSummary(ctx, sessionID)
	if err != nil {
		return nil, newOpError(OpSummary, true, err)
	}
	return summary, nil
}

// Detail returns the full record of any session, open or not.
func (r *Registry) Detail(ctx context.Context, sessionID int) (*SessionDetail, error) {
	if sessionID <= 0 {
		return nil, newOpError(OpValidate, false, fmt.Errorf("session %d: %w", sessionID, ErrInvalidSession))
	}

	detail, err := r.params.Backend.GetSessionDetail(ctx, sessionID)
	if err != nil {
		return nil, newOpError(OpDetail, true, err)
	}
	return detail, nil
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	controllers := r.controllers
	r.controllers = make(map[int]*Controller)
	r.updateGaugeLocked()
	r.mu.Unlock()

	for _, c := range controllers {
		c.Close()
	}
}

func (r *Registry) put(c *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controllers[c.SessionID()] = c
	r.updateGaugeLocked()
}

func (r *Registry) updateGaugeLocked() {
	if r.params.MetricsManager != nil {
		r.params.MetricsManager.GaugeActiveSessions.Set(float64(len(r.controllers)))
	}
}
