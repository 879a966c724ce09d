package ingestion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePayload = `{
  "errors": [],
  "results": 1,
  "response": [
    {
      "fixture": {
        "id": 971362,
        "date": "2023-10-01T20:00:00+00:00",
        "venue": {"name": "La Bombonera"},
        "status": {"short": "FT"}
      },
      "teams": {
        "home": {"id": 451, "name": "Boca Juniors"},
        "away": {"id": 435, "name": "River Plate"}
      },
      "goals": {"home": 2, "away": 1}
    }
  ]
}`

const statisticsPayload = `{
  "errors": [],
  "results": 2,
  "response": [
    {
      "team": {"id": 451, "name": "Boca Juniors"},
      "statistics": [
        {"type": "Shots on Goal", "value": 6},
        {"type": "Shots insidebox", "value": 9},
        {"type": "Shots outsidebox", "value": 4},
        {"type": "Corner Kicks", "value": 7},
        {"type": "Offsides", "value": 2},
        {"type": "Ball Possession", "value": "57%"},
        {"type": "Passes %", "value": "84%"},
        {"type": "Total passes", "value": 512},
        {"type": "Fouls", "value": 11},
        {"type": "Yellow Cards", "value": 2},
        {"type": "Red Cards", "value": null}
      ]
    },
    {
      "team": {"id": 435, "name": "River Plate"},
      "statistics": [
        {"type": "Shots on Goal", "value": 3},
        {"type": "Ball Possession", "value": "43%"},
        {"type": "Passes %", "value": "79%"},
        {"type": "Total passes", "value": 401}
      ]
    }
  ]
}`

func newTestClient(t *testing.T, handler http.Handler) *APIFootballClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewAPIFootballClient("test-key", 128, 2023,
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRequestsPerMinute(6000),
	)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestFetchMatchParsesFixtureAndStatistics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fixtures", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-rapidapi-key"))
		assert.Equal(t, "971362", r.URL.Query().Get("id"))
		fmt.Fprint(w, fixturePayload)
	})
	mux.HandleFunc("/fixtures/statistics", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "971362", r.URL.Query().Get("fixture"))
		fmt.Fprint(w, statisticsPayload)
	})
	client := newTestClient(t, mux)

	raw, err := client.FetchMatch(context.Background(), 971362)
	require.NoError(t, err)

	assert.Equal(t, int64(971362), raw.Info.FixtureID)
	assert.Equal(t, "Boca Juniors", raw.Info.HomeTeam)
	assert.Equal(t, "River Plate", raw.Info.AwayTeam)
	assert.Equal(t, 2, raw.Info.HomeGoals)
	assert.Equal(t, 1, raw.Info.AwayGoals)
	assert.Equal(t, "2023-10-01", raw.Info.Date)
	assert.Equal(t, "La Bombonera", raw.Info.Venue)

	require.NotNil(t, raw.Home)
	assert.Equal(t, 6, raw.Home.ShotsOnGoal)
	assert.Equal(t, 9, raw.Home.ShotsInsideBox)
	assert.Equal(t, 4, raw.Home.ShotsOutsideBox)
	assert.Equal(t, 7, raw.Home.Corners)
	assert.Equal(t, 2, raw.Home.Offsides)
	assert.Equal(t, 57.0, raw.Home.Possession)
	assert.Equal(t, 84.0, raw.Home.PassAccuracy)
	assert.Equal(t, 512, raw.Home.TotalPasses)
	assert.Equal(t, 11, raw.Home.Fouls)
	assert.Equal(t, 2, raw.Home.YellowCards)
	assert.Equal(t, 0, raw.Home.RedCards, "null value stays zero")

	require.NotNil(t, raw.Away)
	assert.Equal(t, 3, raw.Away.ShotsOnGoal)
	assert.Equal(t, 0, raw.Away.Corners, "missing provider field stays zero")
}

func TestFetchMatchMissingStatisticsLeavesTeamsNil(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fixtures", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fixturePayload)
	})
	mux.HandleFunc("/fixtures/statistics", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors": [], "results": 0, "response": []}`)
	})
	client := newTestClient(t, mux)

	raw, err := client.FetchMatch(context.Background(), 971362)
	require.NoError(t, err)
	assert.Nil(t, raw.Home)
	assert.Nil(t, raw.Away)
}

func TestFetchMatchUnknownFixture(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fixtures", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors": [], "results": 0, "response": []}`)
	})
	client := newTestClient(t, mux)

	_, err := client.FetchMatch(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestRateLimitFromStatusCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fixtures", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	client := newTestClient(t, mux)

	_, err := client.FetchMatch(context.Background(), 971362)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestRateLimitFromErrorsEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fixtures", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors": {"requests": "You have reached the request limit for the day"}, "results": 0, "response": []}`)
	})
	client := newTestClient(t, mux)

	_, err := client.FetchMatch(context.Background(), 971362)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestEnvelopeErrorObject(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fixtures", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors": {"token": "Error/Missing application key"}, "results": 0, "response": []}`)
	})
	client := newTestClient(t, mux)

	_, err := client.FetchMatch(context.Background(), 971362)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Contains(t, err.Error(), "application key")
}

func TestLatestFixtureIDPicksMostRecent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fixtures", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "451", q.Get("team"))
		assert.Equal(t, "128", q.Get("league"))
		assert.Equal(t, "2023", q.Get("season"))
		assert.Equal(t, "FT", q.Get("status"))
		fmt.Fprint(w, `{
  "errors": [],
  "results": 2,
  "response": [
    {"fixture": {"id": 900001, "date": "2023-09-10T20:00:00+00:00"}, "teams": {"home": {"id": 451}, "away": {"id": 442}}, "goals": {"home": 0, "away": 0}},
    {"fixture": {"id": 971362, "date": "2023-10-01T20:00:00+00:00"}, "teams": {"home": {"id": 451}, "away": {"id": 435}}, "goals": {"home": 2, "away": 1}}
  ]
}`)
	})
	client := newTestClient(t, mux)

	id, err := client.LatestFixtureID(context.Background(), 451)
	require.NoError(t, err)
	assert.Equal(t, int64(971362), id)
}

func TestLatestFixtureIDNoFixtures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fixtures", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors": [], "results": 0, "response": []}`)
	})
	client := newTestClient(t, mux)

	_, err := client.LatestFixtureID(context.Background(), 451)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestHeadToHeadOrdersMostRecentFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fixtures", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "451-435", r.URL.Query().Get("h2h"))
		fmt.Fprint(w, `{
  "errors": [],
  "results": 2,
  "response": [
    {"fixture": {"id": 800100, "date": "2023-05-07T20:00:00+00:00"}, "teams": {"home": {"id": 435, "name": "River Plate"}, "away": {"id": 451, "name": "Boca Juniors"}}, "goals": {"home": 1, "away": 0}},
    {"fixture": {"id": 971362, "date": "2023-10-01T20:00:00+00:00"}, "teams": {"home": {"id": 451, "name": "Boca Juniors"}, "away": {"id": 435, "name": "River Plate"}}, "goals": {"home": 2, "away": 1}}
  ]
}`)
	})
	client := newTestClient(t, mux)

	meetings, err := client.HeadToHead(context.Background(), 451, 435)
	require.NoError(t, err)
	require.Len(t, meetings, 2)
	assert.Equal(t, int64(971362), meetings[0].FixtureID)
	assert.Equal(t, "2023-10-01", meetings[0].Date)
	assert.Equal(t, int64(800100), meetings[1].FixtureID)
}

func TestThrottleSleepsBetweenRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fixtures", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fixturePayload)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	var slept []time.Duration
	client := NewAPIFootballClient("k", 128, 2023,
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRequestsPerMinute(60),
	)
	client.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := client.LatestFixtureID(context.Background(), 451)
	require.NoError(t, err)
	assert.Empty(t, slept, "first request goes through immediately")

	_, err = client.LatestFixtureID(context.Background(), 451)
	require.NoError(t, err)
	require.NotEmpty(t, slept, "second request must wait out the interval")
	assert.LessOrEqual(t, slept[0], time.Second)
}

func TestThrottleHonorsContextCancellation(t *testing.T) {
	client := NewAPIFootballClient("k", 128, 2023, WithRequestsPerMinute(1))
	client.lastRequest = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.throttle(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatValue(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{`57`, 57, true},
		{`"57%"`, 57, true},
		{`"84"`, 84, true},
		{`57.5`, 57.5, true},
		{`null`, 0, false},
		{`"N/A"`, 0, false},
	}
	for _, tc := range cases {
		got, ok := statValue([]byte(tc.raw))
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestProviderErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrRateLimited, ErrDataUnavailable))
}
