package gymapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/gymsession/internal/telemetry/metrics"
	"github.com/2beens/gymsession/internal/telemetry/tracing"
	"github.com/2beens/gymsession/internal/workout"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// error bodies longer than this are cut in StatusError
const maxErrorBodyLen = 512

var errEmptyResponse = errors.New("empty response body")

// StatusError is returned for any non-2xx answer of the training backend.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: backend status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Unwrap lets callers match a missing session with errors.Is.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return workout.ErrSessionNotFound
	}
	return nil
}

// Api is the client of the training backend REST API.
type Api struct {
	baseURL        string
	token          string
	httpClient     *http.Client
	metricsManager *metrics.Manager
}

func NewApi(
	baseURL, token string,
	httpClient *http.Client,
	metricsManager *metrics.Manager,
) *Api {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Api{
		baseURL:        strings.TrimRight(baseURL, "/"),
		token:          token,
		httpClient:     httpClient,
		metricsManager: metricsManager,
	}
}

type startSessionRequest struct {
	RoutineDetailID int `json:"routineDetailId"`
}

type startSessionResponse struct {
	SessionID int `json:"sessionId"`
}

type reorderRequest struct {
	WorkoutExerciseIDs []int `json:"workoutExerciseIds"`
}

func (api *Api) StartSession(ctx context.Context, routineDetailID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gymapi.startSession")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.Int("routine.detail.id", routineDetailID))

	var resp startSessionResponse
	if err := api.do(ctx, "start", http.MethodPost, "/workouts/start", startSessionRequest{RoutineDetailID: routineDetailID}, &resp); err != nil {
		return 0, err
	}
	return resp.SessionID, nil
}

func (api *Api) GetExerciseDetail(ctx context.Context, sessionID, order int) (_ *workout.ExerciseDetail, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gymapi.getExerciseDetail")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(
		attribute.Int("session.id", sessionID),
		attribute.Int("exercise.order", order),
	)

	detail := &workout.ExerciseDetail{}
	path := fmt.Sprintf("/workouts/%d/exercise/%d", sessionID, order)
	if err := api.do(ctx, "exercise", http.MethodGet, path, nil, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

func (api *Api) SaveSets(ctx context.Context, sessionID, workoutExerciseID int, req workout.SaveSetsRequest) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gymapi.saveSets")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(
		attribute.Int("session.id", sessionID),
		attribute.Int("workout.exercise.id", workoutExerciseID),
		attribute.Int("sets", len(req.Sets)),
	)

	path := fmt.Sprintf("/workouts/%d/exercises/%d/sets", sessionID, workoutExerciseID)
	return api.do(ctx, "sets", http.MethodPost, path, req, nil)
}

func (api *Api) ReorderNextExercises(ctx context.Context, sessionID int, workoutExerciseIDs []int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gymapi.reorderNextExercises")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	if workoutExerciseIDs == nil {
		workoutExerciseIDs = []int{}
	}
	path := fmt.Sprintf("/workouts/sessions/%d/exercises/reorder-next", sessionID)
	return api.do(ctx, "reorder", http.MethodPatch, path, reorderRequest{WorkoutExerciseIDs: workoutExerciseIDs}, nil)
}

func (api *Api) DiscardSession(ctx context.Context, sessionID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gymapi.discardSession")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	return api.do(ctx, "discard", http.MethodPost, fmt.Sprintf("/workouts/%d/discard", sessionID), struct{}{}, nil)
}

func (api *Api) FinishSession(ctx context.Context, sessionID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gymapi.finishSession")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	return api.do(ctx, "finish", http.MethodPost, fmt.Sprintf("/workouts/%d/finish", sessionID), struct{}{}, nil)
}

func (api *Api) GetSessionSummary(ctx context.Context, sessionID int) (_ *workout.SessionSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gymapi.getSessionSummary")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	summary := &workout.SessionSummary{}
	if err := api.do(ctx, "summary", http.MethodGet, fmt.Sprintf("/workouts/%d/summary", sessionID), nil, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// GetSessionDetail returns the full record of a session, exercises sorted by order.
func (api *Api) GetSessionDetail(ctx context.Context, sessionID int) (_ *workout.SessionDetail, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gymapi.getSessionDetail")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	detail := &workout.SessionDetail{}
	if err := api.do(ctx, "detail", http.MethodGet, fmt.Sprintf("/workouts/%d/detail", sessionID), nil, detail); err != nil {
		return nil, err
	}
	sort.SliceStable(detail.Exercises, func(i, j int) bool {
		return detail.Exercises[i].ExerciseOrder < detail.Exercises[j].ExerciseOrder
	})
	return detail, nil
}

func (api *Api) GetProgressionRecommendation(ctx context.Context, params workout.RecommendationParams) (_ *workout.ProgressionRecommendation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gymapi.getProgressionRecommendation")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.Int("exercise.id", params.ExerciseID))

	query := url.Values{}
	query.Set("plannedSets", strconv.Itoa(params.PlannedSets))
	query.Set("repsMin", strconv.Itoa(params.RepsMin))
	query.Set("repsMax", strconv.Itoa(params.RepsMax))
	path := fmt.Sprintf("/progress/exercises/%d/recommendation?%s", params.ExerciseID, query.Encode())

	rec := &workout.ProgressionRecommendation{}
	if err := api.do(ctx, "recommendation", http.MethodGet, path, nil, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// do sends one request to the backend; a nil out discards the response body.
func (api *Api) do(ctx context.Context, op, method, path string, body, out any) error {
	statusLabel := "error"
	defer func(begin time.Time) {
		if api.metricsManager == nil {
			return
		}
		api.metricsManager.HistogramBackendDuration.WithLabelValues(op).Observe(time.Since(begin).Seconds())
		api.metricsManager.CounterBackendRequests.WithLabelValues(op, statusLabel).Inc()
	}(time.Now())

	var reqBody io.Reader
	if body != nil {
		reqBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reqBody = bytes.NewReader(reqBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, api.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if api.token != "" {
		req.Header.Set("Authorization", "Bearer "+api.token)
	}

	log.Tracef("gymapi: %s %s", method, path)
	resp, err := api.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	statusLabel = strconv.Itoa(resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody := strings.TrimSpace(string(respBytes))
		if len(errBody) > maxErrorBodyLen {
			errBody = errBody[:maxErrorBodyLen]
		}
		return &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       errBody,
		}
	}

	if out == nil || len(bytes.TrimSpace(respBytes)) == 0 {
		if out != nil {
			return fmt.Errorf("%s: %w", op, errEmptyResponse)
		}
		return nil
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("%s: unmarshal response: %w", op, err)
	}
	return nil
}
