package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"chatdt/internal/domain"
	"chatdt/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL           = "https://v3.football.api-sports.io"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerMinute = 10
)

// APIFootballClient implements Provider against the API-FOOTBALL v3 REST API.
//
// Requests are serialized with a minimum inter-request interval: the provider
// enforces a per-minute ceiling and a daily quota, so the client never fans
// out parallel calls.
type APIFootballClient struct {
	baseURL  string
	apiKey   string
	leagueID int64
	season   int
	client   *http.Client

	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
	sleep       func(context.Context, time.Duration) error
}

// APIFootballOption configures APIFootballClient.
type APIFootballOption func(*APIFootballClient)

// WithBaseURL overrides the provider endpoint (used by tests).
func WithBaseURL(u string) APIFootballOption {
	return func(c *APIFootballClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) APIFootballOption {
	return func(c *APIFootballClient) {
		c.client = client
	}
}

// WithRequestsPerMinute sets the caller-side throttle ceiling.
func WithRequestsPerMinute(n int) APIFootballOption {
	return func(c *APIFootballClient) {
		if n > 0 {
			c.minInterval = time.Minute / time.Duration(n)
		}
	}
}

// NewAPIFootballClient creates a client scoped to one league and season.
func NewAPIFootballClient(apiKey string, leagueID int64, season int, opts ...APIFootballOption) *APIFootballClient {
	c := &APIFootballClient{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		leagueID:    leagueID,
		season:      season,
		client:      &http.Client{Timeout: DefaultTimeout},
		minInterval: time.Minute / DefaultRequestsPerMinute,
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Provider = (*APIFootballClient)(nil)

// envelope is the common API-FOOTBALL response wrapper. The errors field is
// [] when empty and an object when populated, hence the RawMessage.
type envelope struct {
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response json.RawMessage `json:"response"`
}

// fixtureItem is one element of a /fixtures response.
type fixtureItem struct {
	Fixture struct {
		ID    int64  `json:"id"`
		Date  string `json:"date"`
		Venue struct {
			Name string `json:"name"`
		} `json:"venue"`
		Status struct {
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	Teams struct {
		Home teamRef `json:"home"`
		Away teamRef `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

type teamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// statisticsItem is one team's entry in a /fixtures/statistics response.
type statisticsItem struct {
	Team       teamRef `json:"team"`
	Statistics []struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	} `json:"statistics"`
}

// FetchMatch returns the normalized match record for a fixture. It combines
// the fixture metadata endpoint with the per-team statistics endpoint; a
// fixture with no statistics yields nil team statistics, which the scoring
// layer rejects as incomplete.
func (c *APIFootballClient) FetchMatch(ctx context.Context, fixtureID int64) (*domain.RawMatch, error) {
	var fixtures []fixtureItem
	params := url.Values{"id": []string{strconv.FormatInt(fixtureID, 10)}}
	if err := c.get(ctx, "/fixtures", params, &fixtures); err != nil {
		return nil, fmt.Errorf("fetch fixture %d: %w", fixtureID, err)
	}
	if len(fixtures) == 0 {
		return nil, fmt.Errorf("fixture %d: %w", fixtureID, ErrDataUnavailable)
	}
	fx := fixtures[0]

	var stats []statisticsItem
	params = url.Values{"fixture": []string{strconv.FormatInt(fixtureID, 10)}}
	if err := c.get(ctx, "/fixtures/statistics", params, &stats); err != nil {
		return nil, fmt.Errorf("fetch statistics %d: %w", fixtureID, err)
	}

	raw := &domain.RawMatch{Info: fixtureInfo(fx)}
	for _, item := range stats {
		parsed := parseStatistics(item)
		switch item.Team.ID {
		case fx.Teams.Home.ID:
			raw.Home = parsed
		case fx.Teams.Away.ID:
			raw.Away = parsed
		}
	}
	return raw, nil
}

// LatestFixtureID returns the most recent finished fixture of a team within
// the client's league and season.
func (c *APIFootballClient) LatestFixtureID(ctx context.Context, teamID int64) (int64, error) {
	params := url.Values{
		"team":   []string{strconv.FormatInt(teamID, 10)},
		"league": []string{strconv.FormatInt(c.leagueID, 10)},
		"season": []string{strconv.Itoa(c.season)},
		"status": []string{"FT"},
	}
	var fixtures []fixtureItem
	if err := c.get(ctx, "/fixtures", params, &fixtures); err != nil {
		return 0, fmt.Errorf("fetch fixtures for team %d: %w", teamID, err)
	}
	if len(fixtures) == 0 {
		return 0, fmt.Errorf("team %d has no finished fixtures: %w", teamID, ErrDataUnavailable)
	}
	sort.Slice(fixtures, func(i, j int) bool {
		return fixtures[i].Fixture.Date > fixtures[j].Fixture.Date
	})
	return fixtures[0].Fixture.ID, nil
}

// HeadToHead returns the finished meetings between two teams, most recent
// first.
func (c *APIFootballClient) HeadToHead(ctx context.Context, teamA, teamB int64) ([]domain.FixtureSummary, error) {
	params := url.Values{
		"h2h":    []string{fmt.Sprintf("%d-%d", teamA, teamB)},
		"status": []string{"FT"},
	}
	var fixtures []fixtureItem
	if err := c.get(ctx, "/fixtures", params, &fixtures); err != nil {
		return nil, fmt.Errorf("fetch head-to-head %d-%d: %w", teamA, teamB, err)
	}
	sort.Slice(fixtures, func(i, j int) bool {
		return fixtures[i].Fixture.Date > fixtures[j].Fixture.Date
	})
	out := make([]domain.FixtureSummary, 0, len(fixtures))
	for _, fx := range fixtures {
		s := domain.FixtureSummary{
			FixtureID: fx.Fixture.ID,
			Date:      shortDate(fx.Fixture.Date),
			HomeTeam:  fx.Teams.Home.Name,
			AwayTeam:  fx.Teams.Away.Name,
		}
		if fx.Goals.Home != nil {
			s.HomeGoals = *fx.Goals.Home
		}
		if fx.Goals.Away != nil {
			s.AwayGoals = *fx.Goals.Away
		}
		out = append(out, s)
	}
	return out, nil
}

// get performs a throttled GET against the provider and decodes the response
// envelope into out.
func (c *APIFootballClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.throttle(ctx); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		observability.RecordProviderRequest(path, time.Since(start).Seconds())
	}()

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		observability.RecordProviderError("rate_limited")
		return fmt.Errorf("%s: %w", path, ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		observability.RecordProviderError("http_status")
		return fmt.Errorf("%s: %w: status %d", path, ErrDataUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if err := envelopeError(env.Errors); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(env.Response) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// throttle blocks until the minimum inter-request interval has elapsed.
func (c *APIFootballClient) throttle(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lastRequest.IsZero() {
		if wait := c.minInterval - time.Since(c.lastRequest); wait > 0 {
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	c.lastRequest = time.Now()
	return nil
}

// envelopeError maps a non-empty provider errors field to a typed error.
// The field is an array when empty and a string-keyed object otherwise.
func envelopeError(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var msgs map[string]string
	if err := json.Unmarshal(raw, &msgs); err != nil || len(msgs) == 0 {
		return nil
	}
	for key, msg := range msgs {
		lower := strings.ToLower(key + " " + msg)
		if strings.Contains(lower, "ratelimit") || strings.Contains(lower, "rate limit") || strings.Contains(lower, "request limit") {
			return fmt.Errorf("%w: %s", ErrRateLimited, msg)
		}
	}
	for key, msg := range msgs {
		return fmt.Errorf("%w: %s: %s", ErrDataUnavailable, key, msg)
	}
	return nil
}

func fixtureInfo(fx fixtureItem) domain.MatchInfo {
	info := domain.MatchInfo{
		FixtureID:  fx.Fixture.ID,
		HomeTeamID: fx.Teams.Home.ID,
		AwayTeamID: fx.Teams.Away.ID,
		HomeTeam:   fx.Teams.Home.Name,
		AwayTeam:   fx.Teams.Away.Name,
		Date:       shortDate(fx.Fixture.Date),
		Venue:      fx.Fixture.Venue.Name,
	}
	if fx.Goals.Home != nil {
		info.HomeGoals = *fx.Goals.Home
	}
	if fx.Goals.Away != nil {
		info.AwayGoals = *fx.Goals.Away
	}
	return info
}

// shortDate truncates an ISO-8601 timestamp to its date part.
func shortDate(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

// parseStatistics maps the provider's loosely typed statistics list onto
// MatchStatistics. Unknown types are ignored; null values stay zero.
func parseStatistics(item statisticsItem) *domain.MatchStatistics {
	stats := &domain.MatchStatistics{}
	for _, entry := range item.Statistics {
		val, ok := statValue(entry.Value)
		if !ok {
			continue
		}
		switch entry.Type {
		case "Shots on Goal":
			stats.ShotsOnGoal = int(val)
		case "Shots insidebox":
			stats.ShotsInsideBox = int(val)
		case "Shots outsidebox":
			stats.ShotsOutsideBox = int(val)
		case "Corner Kicks":
			stats.Corners = int(val)
		case "Offsides":
			stats.Offsides = int(val)
		case "Ball Possession":
			stats.Possession = val
		case "Passes %":
			stats.PassAccuracy = val
		case "Total passes":
			stats.TotalPasses = int(val)
		case "Fouls":
			stats.Fouls = int(val)
		case "Yellow Cards":
			stats.YellowCards = int(val)
		case "Red Cards":
			stats.RedCards = int(val)
		}
	}
	return stats
}

// statValue normalizes a statistics value: numbers pass through, "57%"
// strings are stripped, null reports not-ok.
func statValue(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, false
		}
		str = strings.TrimSuffix(strings.TrimSpace(str), "%")
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
