//go:build integration

package integration_testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/2beens/gymsession/internal/workout"
	"github.com/2beens/gymsession/pkg"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gorilla/mux"
)

const backendToken = "integration-token"

type fakeExercise struct {
	workoutExerciseID int
	exerciseID        int
	name              string
	plannedSets       int
}

type fakeSession struct {
	id          int
	routineName string
	startedAt   time.Time
	exercises   []fakeExercise
	saved       map[int]workout.SaveSetsRequest
	finished    bool
	discarded   bool
}

// fakeTrainingBackend is an in-memory training backend, serving the
// subset of its REST API the session service talks to.
type fakeTrainingBackend struct {
	mutex          sync.Mutex
	exerciseCount  int
	nextSessionID  int
	nextExerciseID int
	sessions       map[int]*fakeSession
	server         *httptest.Server
}

func newFakeTrainingBackend(exerciseCount int) *fakeTrainingBackend {
	b := &fakeTrainingBackend{
		exerciseCount:  exerciseCount,
		nextSessionID:  100,
		nextExerciseID: 5000,
		sessions:       make(map[int]*fakeSession),
	}

	r := mux.NewRouter()
	r.Use(b.authMiddleware)
	r.HandleFunc("/workouts/start", b.handleStart).Methods("POST")
	r.HandleFunc("/workouts/{sessionId}/exercise/{order}", b.handleExercise).Methods("GET")
	r.HandleFunc("/workouts/{sessionId}/exercises/{workoutExerciseId}/sets", b.handleSaveSets).Methods("POST")
	r.HandleFunc("/workouts/sessions/{sessionId}/exercises/reorder-next", b.handleReorder).Methods("PATCH")
	r.HandleFunc("/workouts/{sessionId}/discard", b.handleDiscard).Methods("POST")
	r.HandleFunc("/workouts/{sessionId}/finish", b.handleFinish).Methods("POST")
	r.HandleFunc("/workouts/{sessionId}/summary", b.handleSummary).Methods("GET")
	r.HandleFunc("/progress/exercises/{exerciseId}/recommendation", b.handleRecommendation).Methods("GET")

	b.server = httptest.NewServer(r)
	return b
}

func (b *fakeTrainingBackend) URL() string {
	return b.server.URL
}

func (b *fakeTrainingBackend) Close() {
	b.server.Close()
}

func (b *fakeTrainingBackend) session(id int) (fakeSession, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	s, ok := b.sessions[id]
	if !ok {
		return fakeSession{}, false
	}
	return *s, true
}

func (b *fakeTrainingBackend) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+backendToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// lockedSession must be called with the mutex held.
func (b *fakeTrainingBackend) lockedSession(w http.ResponseWriter, r *http.Request) (*fakeSession, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["sessionId"])
	if err != nil {
		http.Error(w, "bad session id", http.StatusBadRequest)
		return nil, false
	}
	s, ok := b.sessions[id]
	if !ok || s.discarded {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}

func (b *fakeTrainingBackend) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoutineDetailID int `json:"routineDetailId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoutineDetailID <= 0 {
		http.Error(w, "routine not found", http.StatusNotFound)
		return
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.nextSessionID++
	s := &fakeSession{
		id:          b.nextSessionID,
		routineName: fmt.Sprintf("Routine %d", req.RoutineDetailID),
		startedAt:   time.Now().UTC(),
		saved:       make(map[int]workout.SaveSetsRequest),
	}
	for i := 0; i < b.exerciseCount; i++ {
		b.nextExerciseID++
		s.exercises = append(s.exercises, fakeExercise{
			workoutExerciseID: b.nextExerciseID,
			exerciseID:        i + 1,
			name:              gofakeit.HipsterWord() + " press",
			plannedSets:       3,
		})
	}
	b.sessions[s.id] = s

	pkg.WriteJSON(w, map[string]int{"sessionId": s.id}, http.StatusCreated)
}

func (b *fakeTrainingBackend) handleExercise(w http.ResponseWriter, r *http.Request) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	s, ok := b.lockedSession(w, r)
	if !ok {
		return
	}
	order, err := strconv.Atoi(mux.Vars(r)["order"])
	if err != nil || order < 1 || order > len(s.exercises) {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}

	ex := s.exercises[order-1]
	detail := workout.ExerciseDetail{
		SessionID:          s.id,
		WorkoutExerciseID:  ex.workoutExerciseID,
		ExerciseOrder:      order,
		ExerciseName:       ex.name,
		PlannedSets:        ex.plannedSets,
		PlannedRepsMin:     6,
		PlannedRepsMax:     10,
		PlannedRir:         2,
		PlannedRestSeconds: 90,
		ExerciseID:         pkg.Some(ex.exerciseID),
		ExerciseVideoURL:   pkg.Some("https://youtu.be/dQw4w9WgXcQ"),
		Progress: workout.SessionProgress{
			SessionID:            s.id,
			CurrentExerciseOrder: order,
			TotalExercises:       len(s.exercises),
			ProgressPercentage:   float64(order-1) / float64(len(s.exercises)) * 100,
			StartedAt:            s.startedAt,
		},
		NextExercises: []workout.UpcomingExercise{},
	}
	for i, next := range s.exercises[order:] {
		detail.NextExercises = append(detail.NextExercises, workout.UpcomingExercise{
			WorkoutExerciseID: next.workoutExerciseID,
			ExerciseOrder:     order + i + 1,
			ExerciseName:      next.name,
			PlannedSets:       next.plannedSets,
			PlannedRepsMin:    6,
			PlannedRepsMax:    10,
			PlannedRir:        2,
		})
	}

	pkg.WriteJSONOK(w, detail)
}

func (b *fakeTrainingBackend) handleSaveSets(w http.ResponseWriter, r *http.Request) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	s, ok := b.lockedSession(w, r)
	if !ok {
		return
	}
	workoutExerciseID, err := strconv.Atoi(mux.Vars(r)["workoutExerciseId"])
	if err != nil {
		http.Error(w, "bad workout exercise id", http.StatusBadRequest)
		return
	}

	var req workout.SaveSetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad sets body", http.StatusBadRequest)
		return
	}
	s.saved[workoutExerciseID] = req
	w.WriteHeader(http.StatusNoContent)
}

func (b *fakeTrainingBackend) handleReorder(w http.ResponseWriter, r *http.Request) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	s, ok := b.lockedSession(w, r)
	if !ok {
		return
	}
	var req struct {
		WorkoutExerciseIDs []int `json:"workoutExerciseIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad reorder body", http.StatusBadRequest)
		return
	}

	byID := make(map[int]fakeExercise, len(s.exercises))
	for _, ex := range s.exercises {
		byID[ex.workoutExerciseID] = ex
	}
	moved := make(map[int]bool, len(req.WorkoutExerciseIDs))
	for _, id := range req.WorkoutExerciseIDs {
		if _, ok := byID[id]; !ok {
			http.Error(w, "unknown workout exercise", http.StatusBadRequest)
			return
		}
		moved[id] = true
	}

	reordered := make([]fakeExercise, 0, len(s.exercises))
	for _, ex := range s.exercises {
		if !moved[ex.workoutExerciseID] {
			reordered = append(reordered, ex)
		}
	}
	for _, id := range req.WorkoutExerciseIDs {
		reordered = append(reordered, byID[id])
	}
	s.exercises = reordered
	w.WriteHeader(http.StatusOK)
}

func (b *fakeTrainingBackend) handleDiscard(w http.ResponseWriter, r *http.Request) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	s, ok := b.lockedSession(w, r)
	if !ok {
		return
	}
	s.discarded = true
	w.WriteHeader(http.StatusOK)
}

func (b *fakeTrainingBackend) handleFinish(w http.ResponseWriter, r *http.Request) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	s, ok := b.lockedSession(w, r)
	if !ok {
		return
	}
	if s.finished {
		http.Error(w, "session already finished", http.StatusConflict)
		return
	}
	s.finished = true
	w.WriteHeader(http.StatusOK)
}

func (b *fakeTrainingBackend) handleSummary(w http.ResponseWriter, r *http.Request) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	s, ok := b.lockedSession(w, r)
	if !ok {
		return
	}

	summary := workout.SessionSummary{
		SessionID:      s.id,
		SessionTitle:   s.routineName,
		StartedAt:      s.startedAt,
		CompletedAt:    time.Now().UTC(),
		TotalExercises: len(s.exercises),
		UserRank:       "Bronze",
	}
	for _, ex := range s.exercises {
		summary.TotalSeries += ex.plannedSets
		saved, ok := s.saved[ex.workoutExerciseID]
		if !ok {
			continue
		}
		summary.CompletedExercises++
		for _, set := range saved.Sets {
			if set.Completed {
				summary.CompletedSeries++
			}
		}
	}
	summary.XPEarned = summary.CompletedSeries * 10
	summary.TotalUserXP = 1000 + summary.XPEarned
	if summary.TotalSeries > 0 {
		summary.ProgressPercentage = float64(summary.CompletedSeries) / float64(summary.TotalSeries) * 100
	}
	summary.DurationSeconds = int(summary.CompletedAt.Sub(summary.StartedAt).Seconds())

	pkg.WriteJSONOK(w, summary)
}

func (b *fakeTrainingBackend) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	exerciseID, err := strconv.Atoi(mux.Vars(r)["exerciseId"])
	if err != nil {
		http.Error(w, "bad exercise id", http.StatusBadRequest)
		return
	}
	pkg.WriteJSONOK(w, workout.ProgressionRecommendation{
		ExerciseID:        exerciseID,
		PlannedSets:       3,
		RepsMin:           6,
		RepsMax:           10,
		RecentPerformance: []workout.RecentPerformance{},
		Type:              workout.IncreaseWeight,
		Message:           "Go heavier",
		SuggestedWeightKg: pkg.Some(62.5),
	})
}
