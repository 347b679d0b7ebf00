package ports

import (
	"context"
	"time"
)

// Album is a named collection in a photo library.
type Album struct {
	ID    string
	Title string
}

// Asset is a media item stored in a photo library.
type Asset struct {
	ID        string
	AlbumID   string
	Path      string // Location of the stored copy
	CreatedAt time.Time
}

// PhotoLibrary abstracts an external photo store.
// Each call completes before it returns; callers sequence them.
type PhotoLibrary interface {
	// FetchAlbum looks up an album by exact title. found is false when no
	// album has that title.
	FetchAlbum(ctx context.Context, title string) (album Album, found bool, err error)

	// CreateAlbum creates an album with the given title.
	CreateAlbum(ctx context.Context, title string) (Album, error)

	// AddVideo inserts the video file as a new asset in the album.
	AddVideo(ctx context.Context, album Album, path string) (Asset, error)
}
