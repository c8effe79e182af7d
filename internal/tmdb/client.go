package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned when TMDB has no title with the requested id.
var ErrNotFound = errors.New("tmdb: not found")

// Client is the TMDB API client.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new TMDB API client.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// HTTPClient exposes the underlying client so tests can swap its transport.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// ---- TMDB Response Types ----

// SearchResponse is the paged result of /search/movie and /search/tv.
type SearchResponse struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Result is a single search hit. Movies fill Title and ReleaseDate, TV
// shows fill Name and FirstAirDate.
type Result struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
	PosterPath   string `json:"poster_path"`
}

// DisplayTitle returns the title for movies and the name for TV shows.
func (r Result) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Date returns the release date for movies and the first air date for TV.
func (r Result) Date() string {
	if r.ReleaseDate != "" {
		return r.ReleaseDate
	}
	return r.FirstAirDate
}

// MovieDetail is the detailed movie info from TMDB.
type MovieDetail struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Runtime int    `json:"runtime"`
}

// TVDetail is the detailed TV show info from TMDB.
type TVDetail struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	NumberOfEpisodes int    `json:"number_of_episodes"`
	NumberOfSeasons  int    `json:"number_of_seasons"`
	EpisodeRunTime   []int  `json:"episode_run_time"`
}

// MeanEpisodeRuntime returns the average listed episode runtime, or 0 when
// TMDB lists none.
func (d TVDetail) MeanEpisodeRuntime() int {
	if len(d.EpisodeRunTime) == 0 {
		return 0
	}
	total := 0
	for _, r := range d.EpisodeRunTime {
		total += r
	}
	return total / len(d.EpisodeRunTime)
}

// ---- Client Methods ----

// SearchMovies searches TMDB movies by title.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]Result, error) {
	return c.search(ctx, "movie", query)
}

// SearchTV searches TMDB TV shows by name.
func (c *Client) SearchTV(ctx context.Context, query string) ([]Result, error) {
	return c.search(ctx, "tv", query)
}

// GetMovieDetail fetches detailed movie info from TMDB.
func (c *Client) GetMovieDetail(ctx context.Context, tmdbID int) (*MovieDetail, error) {
	slog.Debug("fetching TMDB movie detail", "tmdb_id", tmdbID)

	var result MovieDetail
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d", tmdbID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTVDetail fetches detailed TV show info from TMDB.
func (c *Client) GetTVDetail(ctx context.Context, tmdbID int) (*TVDetail, error) {
	slog.Debug("fetching TMDB tv detail", "tmdb_id", tmdbID)

	var result TVDetail
	if err := c.getJSON(ctx, fmt.Sprintf("/tv/%d", tmdbID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) search(ctx context.Context, kind, query string) ([]Result, error) {
	slog.Debug("searching TMDB", "kind", kind, "query", query)

	var result SearchResponse
	params := url.Values{"query": {query}, "include_adult": {"false"}}
	if err := c.getJSON(ctx, "/search/"+kind, params, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("TMDB API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
