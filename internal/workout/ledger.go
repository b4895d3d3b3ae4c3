package workout

import (
	"fmt"
	"math"

	"github.com/2beens/gymsession/pkg"
)

// Ledger holds the performed sets of the exercise in view.
// It is not safe for concurrent use; the Controller owns it.
type Ledger struct {
	sets []SetRecord
}

func NewLedger(plannedSets int) *Ledger {
	l := &Ledger{}
	l.Initialize(plannedSets)
	return l
}

// Initialize replaces all records with plannedSets blank ones, numbered from 1.
func (l *Ledger) Initialize(plannedSets int) {
	if plannedSets < 0 {
		plannedSets = 0
	}
	l.sets = make([]SetRecord, plannedSets)
	for i := range l.sets {
		l.sets[i] = SetRecord{SetNumber: i + 1}
	}
}

func (l *Ledger) Len() int {
	return len(l.sets)
}

func (l *Ledger) Sets() []SetRecord {
	sets := make([]SetRecord, len(l.sets))
	copy(sets, l.sets)
	return sets
}

func (l *Ledger) ToggleCompleted(index int) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	l.sets[index].Completed = !l.sets[index].Completed
	return nil
}

func (l *Ledger) SetReps(index int, reps pkg.Optional[int]) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	if r, ok := reps.Get(); ok && r < 0 {
		return fmt.Errorf("reps %d: %w", r, ErrInvalidSetValue)
	}
	l.sets[index].Reps = reps
	return nil
}

func (l *Ledger) SetWeight(index int, weightKg pkg.Optional[float64]) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	if w, ok := weightKg.Get(); ok && !validWeight(w) {
		return fmt.Errorf("weight %v: %w", w, ErrInvalidSetValue)
	}
	l.sets[index].WeightKg = weightKg
	return nil
}

func (l *Ledger) Update(index int, reps pkg.Optional[int], weightKg pkg.Optional[float64]) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	if r, ok := reps.Get(); ok && r < 0 {
		return fmt.Errorf("reps %d: %w", r, ErrInvalidSetValue)
	}
	if w, ok := weightKg.Get(); ok && !validWeight(w) {
		return fmt.Errorf("weight %v: %w", w, ErrInvalidSetValue)
	}
	l.sets[index].Reps = reps
	l.sets[index].WeightKg = weightKg
	return nil
}

// ApplySuggestedWeight fills the weight of every set that has none yet and
// returns how many sets were changed. User entered weights are kept.
func (l *Ledger) ApplySuggestedWeight(weightKg float64) int {
	if !validWeight(weightKg) {
		return 0
	}

	changed := 0
	for i := range l.sets {
		if l.sets[i].WeightKg.IsSet() {
			continue
		}
		l.sets[i].WeightKg = pkg.Some(weightKg)
		changed++
	}
	return changed
}

func (l *Ledger) CompletedCount() int {
	count := 0
	for _, s := range l.sets {
		if s.Completed {
			count++
		}
	}
	return count
}

// Volume is the sum of reps*weight over the sets having both values.
func (l *Ledger) Volume() float64 {
	volume := 0.0
	for _, s := range l.sets {
		reps, repsOk := s.Reps.Get()
		weight, weightOk := s.WeightKg.Get()
		if repsOk && weightOk {
			volume += float64(reps) * weight
		}
	}
	return volume
}

func (l *Ledger) checkIndex(index int) error {
	if index < 0 || index >= len(l.sets) {
		return fmt.Errorf("set %d of %d: %w", index, len(l.sets), ErrSetIndexOutOfRange)
	}
	return nil
}

func validWeight(w float64) bool {
	return w >= 0 && !math.IsNaN(w) && !math.IsInf(w, 0)
}
