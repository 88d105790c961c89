package ports

import (
	"context"

	"github.com/sa6mwa/funidl/internal/app/model"
)

// ForCataloging is the data-fetching collaborator for the catalog
// API. Explicit error payloads are returned as *model.APIError.
type ForCataloging interface {
	Login(ctx context.Context, user, password string) (token string, err error)
	Search(ctx context.Context, query string) (shows []model.Show, total int, err error)
	// Show returns ErrNotFound when the catalog has no such title.
	Show(ctx context.Context, showID int64) (*model.Show, error)
	// Episodes returns the raw listing, ids are resolved by the
	// caller.
	Episodes(ctx context.Context, showID int64, altList bool) ([]CatalogItem, error)
	Episode(ctx context.Context, titleSlug, episodeSlug string) (*model.EpisodeDetail, error)
	StreamSources(ctx context.Context, experienceID int64) ([]model.StreamSource, error)
}

// CatalogItem is a listing entry before its id has been resolved.
type CatalogItem struct {
	// BaseID is the external episode id with the show id prefix
	// already removed.
	BaseID  string
	Episode model.CatalogEpisode
}

// ForFetching fetches a resource body (manifests, subtitles) by url.
// Any transport failure or non-200 status is an error, there are no
// retries.
type ForFetching interface {
	Get(ctx context.Context, url string) ([]byte, error)
}
