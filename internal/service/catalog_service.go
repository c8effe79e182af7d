package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"media-tracker/internal/models"
	"media-tracker/internal/progress"
	"media-tracker/internal/tmdb"
)

// CatalogClient is the subset of the TMDB client the catalog needs.
type CatalogClient interface {
	SearchMovies(ctx context.Context, query string) ([]tmdb.Result, error)
	SearchTV(ctx context.Context, query string) ([]tmdb.Result, error)
	GetMovieDetail(ctx context.Context, tmdbID int) (*tmdb.MovieDetail, error)
	GetTVDetail(ctx context.Context, tmdbID int) (*tmdb.TVDetail, error)
}

// CatalogService looks titles up in TMDB to prefill item durations.
type CatalogService struct {
	client CatalogClient
}

func NewCatalogService(client CatalogClient) *CatalogService {
	return &CatalogService{client: client}
}

// Search finds movies or TV shows by title.
func (s *CatalogService) Search(ctx context.Context, mediaType models.MediaType, query string) ([]models.CatalogResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("query is required")
	}

	var (
		results []tmdb.Result
		err     error
	)
	switch mediaType {
	case models.MediaTypeMovie:
		results, err = s.client.SearchMovies(ctx, query)
	case models.MediaTypeTV:
		results, err = s.client.SearchTV(ctx, query)
	case models.MediaTypeBook, models.MediaTypeGame:
		return nil, invalid("catalog search supports movie and tv only")
	default:
		return nil, invalid("unknown media type %q", mediaType)
	}
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}

	out := make([]models.CatalogResult, 0, len(results))
	for _, r := range results {
		res := models.CatalogResult{
			ID:          r.ID,
			Title:       r.DisplayTitle(),
			ReleaseDate: r.Date(),
			Overview:    r.Overview,
		}
		if r.PosterPath != "" {
			res.PosterURL = models.TMDBImageBaseW500 + r.PosterPath
		}
		out = append(out, res)
	}
	return out, nil
}

// Duration suggests an item duration in minutes for a catalog title.
func (s *CatalogService) Duration(ctx context.Context, mediaType models.MediaType, tmdbID int) (*models.CatalogDuration, error) {
	if tmdbID <= 0 {
		return nil, invalid("id must be a positive integer")
	}

	switch mediaType {
	case models.MediaTypeMovie:
		detail, err := s.client.GetMovieDetail(ctx, tmdbID)
		if err != nil {
			return nil, catalogErr(err)
		}
		return &models.CatalogDuration{ID: tmdbID, MediaType: mediaType, Duration: detail.Runtime}, nil
	case models.MediaTypeTV:
		detail, err := s.client.GetTVDetail(ctx, tmdbID)
		if err != nil {
			return nil, catalogErr(err)
		}
		return &models.CatalogDuration{
			ID:        tmdbID,
			MediaType: mediaType,
			Duration:  progress.TVDurationMinutes(detail.NumberOfEpisodes, detail.MeanEpisodeRuntime()),
			Episodes:  detail.NumberOfEpisodes,
		}, nil
	case models.MediaTypeBook, models.MediaTypeGame:
		return nil, invalid("catalog durations support movie and tv only")
	default:
		return nil, invalid("unknown media type %q", mediaType)
	}
}

func catalogErr(err error) error {
	if errors.Is(err, tmdb.ErrNotFound) {
		return fmt.Errorf("catalog title: %w", ErrNotFound)
	}
	return fmt.Errorf("catalog lookup: %w", err)
}
