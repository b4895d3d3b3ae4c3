package workout

import (
	"context"
	"fmt"
	"sync"
)

type reorderer interface {
	ReorderNextExercises(ctx context.Context, sessionID int, workoutExerciseIDs []int) error
}

// Sequencer knows the exercise in view and the ones still ahead of it.
// Only the upcoming exercises can be reordered.
type Sequencer struct {
	mu          sync.Mutex
	sessionID   int
	current     int
	upcoming    []UpcomingExercise
	needsResync bool
}

func NewSequencer(detail *ExerciseDetail) *Sequencer {
	upcoming := make([]UpcomingExercise, len(detail.NextExercises))
	copy(upcoming, detail.NextExercises)
	return &Sequencer{
		sessionID: detail.SessionID,
		current:   detail.ExerciseOrder,
		upcoming:  upcoming,
	}
}

func (s *Sequencer) CurrentOrder() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Sequencer) NextOrder() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current + 1
}

func (s *Sequencer) IsLast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.upcoming) == 0
}

func (s *Sequencer) Upcoming() []UpcomingExercise {
	s.mu.Lock()
	defer s.mu.Unlock()
	upcoming := make([]UpcomingExercise, len(s.upcoming))
	copy(upcoming, s.upcoming)
	return upcoming
}

// MoveUp swaps the upcoming exercise at index with the one before it.
// Returns false when nothing moved.
func (s *Sequencer) MoveUp(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index <= 0 || index >= len(s.upcoming) {
		return false
	}
	s.upcoming[index-1], s.upcoming[index] = s.upcoming[index], s.upcoming[index-1]
	return true
}

func (s *Sequencer) MoveDown(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.upcoming)-1 {
		return false
	}
	s.upcoming[index+1], s.upcoming[index] = s.upcoming[index], s.upcoming[index+1]
	return true
}

func (s *Sequencer) OrderedIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.upcoming))
	for _, e := range s.upcoming {
		ids = append(ids, e.WorkoutExerciseID)
	}
	return ids
}

// NeedsResync reports that the local order may differ from the backend
// after a failed commit.
func (s *Sequencer) NeedsResync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsResync
}

// CommitReorder sends the current upcoming order to the backend.
// A failed commit keeps the local order as is and marks the sequencer for resync.
func (s *Sequencer) CommitReorder(ctx context.Context, r reorderer) error {
	ids := s.OrderedIDs()
	err := r.ReorderNextExercises(ctx, s.sessionID, ids)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.needsResync = true
		return fmt.Errorf("reorder next exercises: %w", err)
	}
	s.needsResync = false
	return nil
}
