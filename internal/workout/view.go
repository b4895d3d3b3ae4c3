package workout

import "github.com/2beens/gymsession/pkg"

type ViewError struct {
	Op        string `json:"op"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// View is a point in time copy of a session, safe to hand to a renderer.
type View struct {
	State                 State                      `json:"state"`
	Outcome               Outcome                    `json:"outcome"`
	SessionID             int                        `json:"sessionId"`
	Order                 int                        `json:"exerciseOrder"`
	Exercise              *ExerciseDetail            `json:"exercise,omitempty"`
	VideoEmbedURL         string                     `json:"videoEmbedUrl,omitempty"`
	Sets                  []SetRecord                `json:"sets"`
	Notes                 string                     `json:"notes"`
	CompletedSets         int                        `json:"completedSets"`
	VolumeKg              float64                    `json:"volumeKg"`
	Volume                string                     `json:"volume"`
	Estimated1RMKg        pkg.Optional[float64]      `json:"estimated1RmKg"`
	ElapsedSeconds        int64                      `json:"elapsedSeconds"`
	Elapsed               string                     `json:"elapsed"`
	IsLast                bool                       `json:"isLast"`
	NeedsResync           bool                       `json:"needsResync"`
	Recommendation        *ProgressionRecommendation `json:"recommendation,omitempty"`
	RecommendationSymbol  string                     `json:"recommendationSymbol,omitempty"`
	RecommendationLoading bool                       `json:"recommendationLoading"`
	ExitRequested         bool                       `json:"exitRequested"`
	Summary               *SessionSummary            `json:"summary,omitempty"`
	Error                 *ViewError                 `json:"error,omitempty"`
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := c.clock.Elapsed()
	v := View{
		State:                 c.state,
		Outcome:               c.outcome,
		SessionID:             c.sessionID,
		Order:                 c.order,
		Sets:                  []SetRecord{},
		Notes:                 c.notes,
		ElapsedSeconds:        elapsed,
		Elapsed:               FormatElapsed(elapsed),
		RecommendationLoading: c.recommendationLoading,
		ExitRequested:         c.exitRequested,
	}

	if c.detail != nil {
		detail := *c.detail
		if c.detail.PreviousSet != nil {
			prev := *c.detail.PreviousSet
			detail.PreviousSet = &prev
		}
		if c.sequencer != nil {
			detail.NextExercises = c.sequencer.Upcoming()
			v.IsLast = c.sequencer.IsLast()
			v.NeedsResync = c.sequencer.NeedsResync()
		} else {
			detail.NextExercises = append([]UpcomingExercise(nil), c.detail.NextExercises...)
		}
		v.Exercise = &detail
		if videoURL, ok := detail.ExerciseVideoURL.Get(); ok {
			v.VideoEmbedURL, _ = VideoEmbedURL(videoURL)
		}
	}
	if c.ledger != nil {
		v.Sets = c.ledger.Sets()
		v.CompletedSets = c.ledger.CompletedCount()
		v.VolumeKg = c.ledger.Volume()
		v.Estimated1RMKg = BestEstimated1RM(v.Sets)
	}
	v.Volume = FormatVolume(v.VolumeKg)
	if c.recommendation != nil {
		rec := *c.recommendation
		rec.RecentPerformance = append([]RecentPerformance(nil), c.recommendation.RecentPerformance...)
		v.Recommendation = &rec
		v.RecommendationSymbol = rec.Type.Symbol()
	}
	if c.summary != nil {
		summary := *c.summary
		if c.summary.PreviousComparison != nil {
			cmp := *c.summary.PreviousComparison
			summary.PreviousComparison = &cmp
		}
		v.Summary = &summary
	}
	if c.lastErr != nil {
		v.Error = &ViewError{
			Op:        c.lastErr.Op,
			Message:   c.lastErr.Message(),
			Retryable: c.lastErr.Retryable,
		}
	}
	return v
}
