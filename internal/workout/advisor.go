package workout

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/2beens/gymsession/internal/telemetry/tracing"
	"github.com/2beens/gymsession/pkg"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const megabyte = 1024 * 1024

type RecommendationType string

const (
	IncreaseWeight RecommendationType = "INCREASE_WEIGHT"
	DecreaseWeight RecommendationType = "DECREASE_WEIGHT"
	IncreaseReps   RecommendationType = "INCREASE_REPS"
	Maintain       RecommendationType = "MAINTAIN"
	FirstTime      RecommendationType = "FIRST_TIME"
)

// Symbol is the short marker shown next to a recommendation.
func (t RecommendationType) Symbol() string {
	switch t {
	case IncreaseWeight:
		return "↑"
	case DecreaseWeight:
		return "↓"
	case IncreaseReps:
		return "→"
	case Maintain:
		return "="
	case FirstTime:
		return "★"
	default:
		return ""
	}
}

// RecentPerformance is how an exercise went in one past session.
type RecentPerformance struct {
	Date          string  `json:"date"`
	WeightKg      float64 `json:"weightKg"`
	AvgReps       float64 `json:"avgReps"`
	CompletedSets int     `json:"completedSets"`
	HitMaxReps    bool    `json:"hitMaxReps"`
	HitMinReps    bool    `json:"hitMinReps"`
	VolumeKg      float64 `json:"volumeKg"`
}

type ProgressionRecommendation struct {
	ExerciseID          int                   `json:"exerciseId"`
	ExerciseName        string                `json:"exerciseName"`
	PlannedSets         int                   `json:"plannedSets"`
	RepsMin             int                   `json:"repsMin"`
	RepsMax             int                   `json:"repsMax"`
	RecentPerformance   []RecentPerformance   `json:"recentPerformance"`
	Type                RecommendationType    `json:"type"`
	Message             string                `json:"message"`
	SuggestedWeightKg   pkg.Optional[float64] `json:"suggestedWeightKg"`
	SuggestedRepsTarget pkg.Optional[int]     `json:"suggestedRepsTarget"`
}

type RecommendationParams struct {
	ExerciseID  int
	PlannedSets int
	RepsMin     int
	RepsMax     int
}

func (p RecommendationParams) Validate() error {
	if p.ExerciseID <= 0 || p.PlannedSets < 0 || p.RepsMin < 0 || p.RepsMax < p.RepsMin {
		return fmt.Errorf("%+v: %w", p, ErrInvalidParams)
	}
	return nil
}

//go:generate mockgen -source=$GOFILE -destination=advisor_mocks_test.go -package=workout_test

type recommendationSource interface {
	GetProgressionRecommendation(ctx context.Context, params RecommendationParams) (*ProgressionRecommendation, error)
}

// Advisor turns the backend progression record of an exercise into a
// recommendation, classified by the local progression policy.
type Advisor struct {
	source      recommendationSource
	cache       *freecache.Cache
	cacheExpire int // seconds
}

// NewAdvisor creates an advisor; cacheTTL <= 0 disables caching.
func NewAdvisor(source recommendationSource, cacheSizeMegabytes int, cacheTTL time.Duration) *Advisor {
	a := &Advisor{
		source: source,
	}
	if cacheTTL > 0 && cacheSizeMegabytes > 0 {
		a.cache = freecache.NewCache(cacheSizeMegabytes * megabyte)
		a.cacheExpire = int(cacheTTL / time.Second)
	}
	return a
}

func (a *Advisor) Recommend(ctx context.Context, params RecommendationParams) (_ *ProgressionRecommendation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "advisor.workout.recommend")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.Int("exercise.id", params.ExerciseID))

	if err := params.Validate(); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("recommendation::%d::%d::%d::%d", params.ExerciseID, params.PlannedSets, params.RepsMin, params.RepsMax)
	if a.cache != nil {
		if recBytes, err := a.cache.Get([]byte(cacheKey)); err == nil {
			log.Tracef("found recommendation for exercise %d in cache", params.ExerciseID)
			rec := &ProgressionRecommendation{}
			if err := json.Unmarshal(recBytes, rec); err != nil {
				log.Errorf("failed to unmarshal recommendation from cache for exercise %d: %s", params.ExerciseID, err)
			} else {
				return rec, nil
			}
		}
	}

	backendRec, err := a.source.GetProgressionRecommendation(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("get progression recommendation: %w", err)
	}
	if backendRec == nil {
		return nil, ErrNoRecommendation
	}

	rec := resolveRecommendation(backendRec, params)

	if a.cache != nil {
		if recBytes, err := json.Marshal(rec); err != nil {
			log.Errorf("failed to marshal recommendation for exercise %d: %s", params.ExerciseID, err)
		} else if err := a.cache.Set([]byte(cacheKey), recBytes, a.cacheExpire); err != nil {
			log.Errorf("failed to write recommendation cache for exercise %d: %s", params.ExerciseID, err)
		}
	}

	return rec, nil
}

// LatestQualifying returns the most recent performance with at least one
// completed set. Dated entries are compared by date; undated ones keep
// the backend order, which lists the newest first.
func LatestQualifying(history []RecentPerformance) (RecentPerformance, bool) {
	type dated struct {
		perf  RecentPerformance
		date  time.Time
		dated bool
		pos   int
	}

	var qualifying []dated
	for i, p := range history {
		if p.CompletedSets <= 0 {
			continue
		}
		d, ok := parsePerformanceDate(p.Date)
		qualifying = append(qualifying, dated{perf: p, date: d, dated: ok, pos: i})
	}
	if len(qualifying) == 0 {
		return RecentPerformance{}, false
	}

	sort.SliceStable(qualifying, func(i, j int) bool {
		if qualifying[i].dated && qualifying[j].dated {
			return qualifying[i].date.After(qualifying[j].date)
		}
		return qualifying[i].pos < qualifying[j].pos
	})
	return qualifying[0].perf, true
}

func parsePerformanceDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Classify applies the progression policy to the latest qualifying performance.
func Classify(history []RecentPerformance, repsMin, repsMax int) RecommendationType {
	last, ok := LatestQualifying(history)
	if !ok {
		return FirstTime
	}

	switch {
	case last.HitMaxReps:
		return IncreaseWeight
	case !last.HitMinReps && last.AvgReps < float64(repsMin):
		return DecreaseWeight
	case last.AvgReps >= float64(repsMin) && last.AvgReps < float64(repsMax):
		return IncreaseReps
	default:
		return Maintain
	}
}

func resolveRecommendation(backendRec *ProgressionRecommendation, params RecommendationParams) *ProgressionRecommendation {
	rec := *backendRec
	rec.RecentPerformance = make([]RecentPerformance, len(backendRec.RecentPerformance))
	copy(rec.RecentPerformance, backendRec.RecentPerformance)
	if rec.ExerciseID == 0 {
		rec.ExerciseID = params.ExerciseID
	}
	rec.PlannedSets = params.PlannedSets
	rec.RepsMin = params.RepsMin
	rec.RepsMax = params.RepsMax

	rec.Type = Classify(rec.RecentPerformance, params.RepsMin, params.RepsMax)
	if rec.Type != backendRec.Type {
		log.Debugf("exercise %d: backend recommends %s, local policy %s", params.ExerciseID, backendRec.Type, rec.Type)
		rec.Message = ""
	}

	last, _ := LatestQualifying(rec.RecentPerformance)
	switch rec.Type {
	case FirstTime:
		rec.SuggestedWeightKg = pkg.None[float64]()
		rec.SuggestedRepsTarget = pkg.None[int]()
	case IncreaseWeight, DecreaseWeight:
		// the weight step is the backend's call, and only when it agrees on the direction
		if backendRec.Type != rec.Type {
			rec.SuggestedWeightKg = pkg.None[float64]()
		}
		if !rec.SuggestedRepsTarget.IsSet() {
			rec.SuggestedRepsTarget = pkg.Some(params.RepsMin)
		}
	case IncreaseReps:
		rec.SuggestedWeightKg = pkg.Some(last.WeightKg)
		target := int(math.Floor(last.AvgReps)) + 1
		if target > params.RepsMax {
			target = params.RepsMax
		}
		rec.SuggestedRepsTarget = pkg.Some(target)
	case Maintain:
		rec.SuggestedWeightKg = pkg.Some(last.WeightKg)
	}

	if rec.Message == "" {
		rec.Message = defaultMessage(rec.Type, rec.SuggestedWeightKg, rec.SuggestedRepsTarget)
	}
	return &rec
}

func defaultMessage(t RecommendationType, weight pkg.Optional[float64], reps pkg.Optional[int]) string {
	w, hasWeight := weight.Get()
	r, hasReps := reps.Get()
	switch t {
	case FirstTime:
		return "First time with this exercise. Pick a weight you can move with good form."
	case IncreaseWeight:
		if hasWeight {
			return fmt.Sprintf("You reached the top of the rep range. Go up to %s.", formatKg(w))
		}
		return "You reached the top of the rep range. Time to add weight."
	case DecreaseWeight:
		if hasWeight {
			return fmt.Sprintf("You fell short of the rep range. Drop to %s.", formatKg(w))
		}
		return "You fell short of the rep range. Reduce the weight."
	case IncreaseReps:
		if hasReps {
			return fmt.Sprintf("Keep the weight and aim for %d reps.", r)
		}
		return "Keep the weight and add a rep."
	default:
		return "Keep the same weight and reps."
	}
}

func formatKg(w float64) string {
	if w == math.Trunc(w) {
		return fmt.Sprintf("%.0f kg", w)
	}
	return fmt.Sprintf("%.1f kg", w)
}
