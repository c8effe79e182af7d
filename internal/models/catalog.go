package models

// CatalogResult is one hit from a catalog search.
type CatalogResult struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"releaseDate"`
	Overview    string `json:"overview"`
	PosterURL   string `json:"posterUrl"`
}

// CatalogDuration is the suggested duration for a catalog title.
type CatalogDuration struct {
	ID        int       `json:"id"`
	MediaType MediaType `json:"mediaType"`
	Duration  int       `json:"duration"`
	Episodes  int       `json:"episodes,omitempty"`
}

const TMDBImageBaseW500 = "https://image.tmdb.org/t/p/w500"
