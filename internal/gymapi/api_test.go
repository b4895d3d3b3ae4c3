package gymapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/gymsession/internal/gymapi"
	"github.com/2beens/gymsession/internal/telemetry/metrics"
	"github.com/2beens/gymsession/internal/workout"
	"github.com/2beens/gymsession/pkg"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	promcl "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "token-abc"

type fakeBackend struct {
	lastSaved    workout.SaveSetsRequest
	lastReorder  []int
	discarded    []int
	finished     []int
	lastRecQuery map[string]string
}

func newFakeBackendServer(t *testing.T) (*fakeBackend, *httptest.Server) {
	backend := &fakeBackend{}
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Authorization") != "Bearer "+testToken {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.HandleFunc("/workouts/start", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			RoutineDetailID int `json:"routineDetailId"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.RoutineDetailID != 9 {
			http.Error(w, "routine not found", http.StatusNotFound)
			return
		}
		pkg.WriteJSONOK(w, map[string]int{"sessionId": 42})
	}).Methods("POST")

	r.HandleFunc("/workouts/{sessionId}/exercise/{order}", func(w http.ResponseWriter, req *http.Request) {
		vars := mux.Vars(req)
		if vars["sessionId"] != "42" {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		pkg.WriteResponse(w, pkg.ContentType.JSON, `{
			"sessionId": 42,
			"workoutExerciseId": 1001,
			"exerciseOrder": 1,
			"exerciseName": "Bench Press",
			"plannedSets": 4,
			"plannedRepsMin": 6,
			"plannedRepsMax": 10,
			"plannedRir": 2,
			"plannedRestSeconds": 120,
			"exerciseId": 7,
			"exerciseVideoUrl": null,
			"previousSet": {"setNumber": 1, "reps": 8, "weightKg": 80},
			"progress": {
				"sessionId": 42,
				"currentExerciseOrder": 1,
				"totalExercises": 5,
				"progressPercentage": 0,
				"xpEarned": 0,
				"startedAt": "2024-03-10T18:00:00Z"
			},
			"nextExercises": [
				{"workoutExerciseId": 1002, "exerciseOrder": 2, "exerciseName": "Squat", "plannedSets": 3, "plannedRepsMin": 5, "plannedRepsMax": 8, "plannedRir": 1, "exerciseId": null, "exerciseVideoUrl": null}
			]
		}`, http.StatusOK)
	}).Methods("GET")

	r.HandleFunc("/workouts/{sessionId}/exercises/{workoutExerciseId}/sets", func(w http.ResponseWriter, req *http.Request) {
		if err := json.NewDecoder(req.Body).Decode(&backend.lastSaved); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods("POST")

	r.HandleFunc("/workouts/sessions/{sessionId}/exercises/reorder-next", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			WorkoutExerciseIDs []int `json:"workoutExerciseIds"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		backend.lastReorder = body.WorkoutExerciseIDs
		w.WriteHeader(http.StatusOK)
	}).Methods("PATCH")

	r.HandleFunc("/workouts/{sessionId}/discard", func(w http.ResponseWriter, req *http.Request) {
		backend.discarded = append(backend.discarded, 42)
		w.WriteHeader(http.StatusOK)
	}).Methods("POST")

	r.HandleFunc("/workouts/{sessionId}/finish", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "session already finished", http.StatusConflict)
	}).Methods("POST")

	r.HandleFunc("/workouts/{sessionId}/summary", func(w http.ResponseWriter, req *http.Request) {
		pkg.WriteResponse(w, pkg.ContentType.JSON, `{
			"sessionId": 42,
			"sessionTitle": "Push A",
			"sessionIcon": null,
			"muscles": "Chest, Triceps",
			"startedAt": "2024-03-10T18:00:00Z",
			"completedAt": "2024-03-10T19:02:00Z",
			"durationSeconds": 3720,
			"durationFormatted": "1h 2m",
			"totalExercises": 5,
			"completedExercises": 5,
			"totalSeries": 18,
			"completedSeries": 17,
			"progressPercentage": 100,
			"xpEarned": 150,
			"totalUserXp": 4200,
			"userRank": "Bronze",
			"previousComparison": {
				"previousSessionId": 30,
				"previousDate": "2024-03-03",
				"previousDurationSeconds": 3900,
				"previousXpEarned": 140,
				"durationDifferenceSeconds": -180,
				"xpDifference": 10
			}
		}`, http.StatusOK)
	}).Methods("GET")

	r.HandleFunc("/workouts/{sessionId}/detail", func(w http.ResponseWriter, req *http.Request) {
		pkg.WriteResponse(w, pkg.ContentType.JSON, `{
			"sessionId": 42,
			"routineName": "Push A",
			"startedAt": "2024-03-10T18:00:00Z",
			"completedAt": null,
			"durationMinutes": 62,
			"totalSeries": 18,
			"totalWeightKg": 5320.5,
			"xpEarned": null,
			"exercises": [
				{"workoutExerciseId": 1003, "exerciseOrder": 3, "exerciseName": "Dips", "sets": []},
				{"workoutExerciseId": 1001, "exerciseOrder": 1, "exerciseName": "Bench Press", "sets": [
					{"id": 1, "setNumber": 1, "reps": 8, "weightKg": 80, "completed": true, "notes": null}
				]},
				{"workoutExerciseId": 1002, "exerciseOrder": 2, "exerciseName": "Incline Press", "sets": []}
			]
		}`, http.StatusOK)
	}).Methods("GET")

	r.HandleFunc("/progress/exercises/{exerciseId}/recommendation", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		backend.lastRecQuery = map[string]string{
			"plannedSets": q.Get("plannedSets"),
			"repsMin":     q.Get("repsMin"),
			"repsMax":     q.Get("repsMax"),
		}
		pkg.WriteResponse(w, pkg.ContentType.JSON, `{
			"exerciseId": 7,
			"exerciseName": "Bench Press",
			"plannedSets": 4,
			"repsMin": 6,
			"repsMax": 10,
			"recentPerformance": [],
			"type": "FIRST_TIME",
			"message": "First time!",
			"suggestedWeightKg": null,
			"suggestedRepsTarget": null
		}`, http.StatusOK)
	}).Methods("GET")

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return backend, server
}

func TestApi_Session(t *testing.T) {
	backend, server := newFakeBackendServer(t)
	metricsManager, reg := metrics.NewTestManagerAndRegistry()
	api := gymapi.NewApi(server.URL+"/", testToken, server.Client(), metricsManager)
	ctx := context.Background()

	sessionID, err := api.StartSession(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 42, sessionID)

	detail, err := api.GetExerciseDetail(ctx, 42, 1)
	require.NoError(t, err)
	assert.Equal(t, 1001, detail.WorkoutExerciseID)
	assert.Equal(t, "Bench Press", detail.ExerciseName)
	exerciseID, ok := detail.ExerciseID.Get()
	require.True(t, ok)
	assert.Equal(t, 7, exerciseID)
	assert.False(t, detail.ExerciseVideoURL.IsSet())
	require.NotNil(t, detail.PreviousSet)
	assert.Equal(t, 80.0, detail.PreviousSet.WeightKg)
	assert.Equal(t, 5, detail.Progress.TotalExercises)
	assert.Equal(t, 2024, detail.Progress.StartedAt.Year())
	require.Len(t, detail.NextExercises, 1)
	assert.Equal(t, "Squat", detail.NextExercises[0].ExerciseName)

	req := workout.SaveSetsRequest{
		Sets: []workout.SetRecord{
			{SetNumber: 1, Reps: pkg.Some(8), WeightKg: pkg.Some(80.0), Completed: true},
			{SetNumber: 2, Completed: true},
		},
		Notes: pkg.Some("easy"),
	}
	require.NoError(t, api.SaveSets(ctx, 42, 1001, req))
	assert.Equal(t, req, backend.lastSaved)

	require.NoError(t, api.ReorderNextExercises(ctx, 42, []int{1003, 1002}))
	assert.Equal(t, []int{1003, 1002}, backend.lastReorder)

	require.NoError(t, api.DiscardSession(ctx, 42))
	assert.Equal(t, []int{42}, backend.discarded)

	assert.Equal(t, 1.0, testutil.ToFloat64(metricsManager.CounterBackendRequests.WithLabelValues("start", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metricsManager.CounterBackendRequests.WithLabelValues("sets", "204")))

	gathered, err := reg.Gather()
	require.NoError(t, err)
	var durationHistogram *promcl.MetricFamily
	for _, m := range gathered {
		if m.GetName() == "gymsession_test_server_backend_request_duration_seconds" {
			durationHistogram = m
			break
		}
	}
	require.NotNil(t, durationHistogram)
	// start, exercise, sets, reorder, discard
	require.Len(t, durationHistogram.Metric, 5)
	for _, m := range durationHistogram.Metric {
		require.NotNil(t, m.Histogram)
		assert.Equal(t, uint64(1), m.Histogram.GetSampleCount())
	}
}

func TestApi_StatusErrors(t *testing.T) {
	_, server := newFakeBackendServer(t)
	metricsManager := metrics.NewTestManager()
	api := gymapi.NewApi(server.URL, testToken, server.Client(), metricsManager)
	ctx := context.Background()

	_, err := api.GetExerciseDetail(ctx, 5, 1)
	var statusErr *gymapi.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "exercise", statusErr.Op)
	assert.Equal(t, "session not found", statusErr.Body)
	assert.ErrorIs(t, err, workout.ErrSessionNotFound)

	err = api.FinishSession(ctx, 42)
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.StatusCode)
	assert.False(t, errors.Is(err, workout.ErrSessionNotFound))
	assert.Equal(t, 1.0, testutil.ToFloat64(metricsManager.CounterBackendRequests.WithLabelValues("finish", "409")))

	unauthorized := gymapi.NewApi(server.URL, "wrong", server.Client(), nil)
	_, err = unauthorized.StartSession(ctx, 9)
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestApi_TransportError(t *testing.T) {
	_, server := newFakeBackendServer(t)
	metricsManager := metrics.NewTestManager()
	api := gymapi.NewApi(server.URL, testToken, server.Client(), metricsManager)
	server.Close()

	_, err := api.StartSession(context.Background(), 9)
	require.Error(t, err)
	var statusErr *gymapi.StatusError
	assert.False(t, errors.As(err, &statusErr))
	assert.Equal(t, 1.0, testutil.ToFloat64(metricsManager.CounterBackendRequests.WithLabelValues("start", "error")))
}

func TestApi_SummaryAndDetail(t *testing.T) {
	_, server := newFakeBackendServer(t)
	api := gymapi.NewApi(server.URL, testToken, server.Client(), nil)
	ctx := context.Background()

	summary, err := api.GetSessionSummary(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Push A", summary.SessionTitle)
	assert.False(t, summary.SessionIcon.IsSet())
	assert.Equal(t, 150, summary.XPEarned)
	require.NotNil(t, summary.PreviousComparison)
	assert.True(t, summary.DurationImproved())
	assert.True(t, summary.XPImproved())

	detail, err := api.GetSessionDetail(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, detail.CompletedAt)
	require.NotNil(t, detail.StartedAt)
	assert.False(t, detail.XPEarned.IsSet())
	require.Len(t, detail.Exercises, 3)
	for i, e := range detail.Exercises {
		assert.Equal(t, i+1, e.ExerciseOrder)
	}
	require.Len(t, detail.Exercises[0].Sets, 1)
	reps, ok := detail.Exercises[0].Sets[0].Reps.Get()
	require.True(t, ok)
	assert.Equal(t, 8, reps)
}

func TestApi_Recommendation(t *testing.T) {
	backend, server := newFakeBackendServer(t)
	api := gymapi.NewApi(server.URL, testToken, server.Client(), nil)

	rec, err := api.GetProgressionRecommendation(context.Background(), workout.RecommendationParams{
		ExerciseID:  7,
		PlannedSets: 4,
		RepsMin:     6,
		RepsMax:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, workout.FirstTime, rec.Type)
	assert.False(t, rec.SuggestedWeightKg.IsSet())
	assert.Empty(t, rec.RecentPerformance)
	assert.Equal(t, map[string]string{
		"plannedSets": "4",
		"repsMin":     "6",
		"repsMax":     "10",
	}, backend.lastRecQuery)
}
