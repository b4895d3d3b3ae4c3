package workout

import (
	"time"

	"github.com/2beens/gymsession/pkg"
)

// SetRecord is one performed set of the exercise in view.
// Reps and weight are independent of Completed: a set can be marked
// completed while either value is still unset.
type SetRecord struct {
	SetNumber int                   `json:"setNumber"`
	Reps      pkg.Optional[int]     `json:"reps"`
	WeightKg  pkg.Optional[float64] `json:"weightKg"`
	Completed bool                  `json:"completed"`
}

type PreviousSet struct {
	SetNumber int     `json:"setNumber"`
	Reps      int     `json:"reps"`
	WeightKg  float64 `json:"weightKg"`
}

type SessionProgress struct {
	SessionID            int       `json:"sessionId"`
	CurrentExerciseOrder int       `json:"currentExerciseOrder"`
	TotalExercises       int       `json:"totalExercises"`
	ProgressPercentage   float64   `json:"progressPercentage"`
	XPEarned             int       `json:"xpEarned"`
	StartedAt            time.Time `json:"startedAt"`
}

// UpcomingExercise is an exercise instance of the session not reached yet.
type UpcomingExercise struct {
	WorkoutExerciseID int                  `json:"workoutExerciseId"`
	ExerciseOrder     int                  `json:"exerciseOrder"`
	ExerciseName      string               `json:"exerciseName"`
	PlannedSets       int                  `json:"plannedSets"`
	PlannedRepsMin    int                  `json:"plannedRepsMin"`
	PlannedRepsMax    int                  `json:"plannedRepsMax"`
	PlannedRir        int                  `json:"plannedRir"`
	ExerciseID        pkg.Optional[int]    `json:"exerciseId"`
	ExerciseVideoURL  pkg.Optional[string] `json:"exerciseVideoUrl"`
}

// ExerciseDetail is the backend view of one exercise instance within a session.
type ExerciseDetail struct {
	SessionID          int                  `json:"sessionId"`
	WorkoutExerciseID  int                  `json:"workoutExerciseId"`
	ExerciseOrder      int                  `json:"exerciseOrder"`
	ExerciseName       string               `json:"exerciseName"`
	PlannedSets        int                  `json:"plannedSets"`
	PlannedRepsMin     int                  `json:"plannedRepsMin"`
	PlannedRepsMax     int                  `json:"plannedRepsMax"`
	PlannedRir         int                  `json:"plannedRir"`
	PlannedRestSeconds int                  `json:"plannedRestSeconds"`
	ExerciseID         pkg.Optional[int]    `json:"exerciseId"`
	ExerciseVideoURL   pkg.Optional[string] `json:"exerciseVideoUrl"`
	PreviousSet        *PreviousSet         `json:"previousSet"`
	Progress           SessionProgress      `json:"progress"`
	NextExercises      []UpcomingExercise   `json:"nextExercises"`
}

type SaveSetsRequest struct {
	Sets  []SetRecord          `json:"sets"`
	Notes pkg.Optional[string] `json:"notes"`
}

type PreviousSessionComparison struct {
	PreviousSessionID         int    `json:"previousSessionId"`
	PreviousDate              string `json:"previousDate"`
	PreviousDurationSeconds   int    `json:"previousDurationSeconds"`
	PreviousXPEarned          int    `json:"previousXpEarned"`
	DurationDifferenceSeconds int    `json:"durationDifferenceSeconds"` // positive = took longer
	XPDifference              int    `json:"xpDifference"`              // positive = earned more
}

type SessionSummary struct {
	SessionID          int                        `json:"sessionId"`
	SessionTitle       string                     `json:"sessionTitle"`
	SessionIcon        pkg.Optional[string]       `json:"sessionIcon"`
	Muscles            pkg.Optional[string]       `json:"muscles"`
	StartedAt          time.Time                  `json:"startedAt"`
	CompletedAt        time.Time                  `json:"completedAt"`
	DurationSeconds    int                        `json:"durationSeconds"`
	DurationFormatted  string                     `json:"durationFormatted"`
	TotalExercises     int                        `json:"totalExercises"`
	CompletedExercises int                        `json:"completedExercises"`
	TotalSeries        int                        `json:"totalSeries"`
	CompletedSeries    int                        `json:"completedSeries"`
	ProgressPercentage float64                    `json:"progressPercentage"`
	XPEarned           int                        `json:"xpEarned"`
	TotalUserXP        int                        `json:"totalUserXp"`
	UserRank           string                     `json:"userRank"`
	PreviousComparison *PreviousSessionComparison `json:"previousComparison"`
}

// DurationImproved reports whether this session was faster than the previous one
// of the same routine slot.
func (s *SessionSummary) DurationImproved() bool {
	return s.PreviousComparison != nil && s.PreviousComparison.DurationDifferenceSeconds < 0
}

func (s *SessionSummary) XPImproved() bool {
	return s.PreviousComparison != nil && s.PreviousComparison.XPDifference > 0
}

type SessionSetDetail struct {
	ID        int                   `json:"id"`
	SetNumber int                   `json:"setNumber"`
	Reps      pkg.Optional[int]     `json:"reps"`
	WeightKg  pkg.Optional[float64] `json:"weightKg"`
	Completed bool                  `json:"completed"`
	Notes     pkg.Optional[string]  `json:"notes"`
}

type SessionExerciseDetail struct {
	WorkoutExerciseID  int                  `json:"workoutExerciseId"`
	ExerciseOrder      int                  `json:"exerciseOrder"`
	ExerciseName       string               `json:"exerciseName"`
	PlannedSets        pkg.Optional[int]    `json:"plannedSets"`
	PlannedRepsMin     pkg.Optional[int]    `json:"plannedRepsMin"`
	PlannedRepsMax     pkg.Optional[int]    `json:"plannedRepsMax"`
	PlannedRir         pkg.Optional[int]    `json:"plannedRir"`
	PlannedRestSeconds pkg.Optional[int]    `json:"plannedRestSeconds"`
	Status             pkg.Optional[string] `json:"status"`
	CompletedSets      pkg.Optional[int]    `json:"completedSets"`
	Sets               []SessionSetDetail   `json:"sets"`
}

// SessionDetail is the full record of a (usually finished) session.
type SessionDetail struct {
	SessionID       int                     `json:"sessionId"`
	RoutineName     string                  `json:"routineName"`
	StartedAt       *time.Time              `json:"startedAt"`
	CompletedAt     *time.Time              `json:"completedAt"`
	DurationMinutes int                     `json:"durationMinutes"`
	TotalSeries     int                     `json:"totalSeries"`
	TotalWeightKg   float64                 `json:"totalWeightKg"`
	XPEarned        pkg.Optional[int]       `json:"xpEarned"`
	Exercises       []SessionExerciseDetail `json:"exercises"`
}
