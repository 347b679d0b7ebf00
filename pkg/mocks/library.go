package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/user/imageseq/pkg/ports"
)

// PhotoLibrary is an in-memory implementation of ports.PhotoLibrary.
type PhotoLibrary struct {
	mu     sync.Mutex
	albums []ports.Album
	assets []ports.Asset

	FetchErr  error
	CreateErr error
	AddErr    error

	FetchCalls  int
	CreateCalls int
	AddCalls    int
}

// NewPhotoLibrary creates an empty mock library.
func NewPhotoLibrary() *PhotoLibrary {
	return &PhotoLibrary{}
}

func (m *PhotoLibrary) FetchAlbum(ctx context.Context, title string) (ports.Album, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCalls++
	if m.FetchErr != nil {
		return ports.Album{}, false, m.FetchErr
	}
	for _, a := range m.albums {
		if a.Title == title {
			return a, true, nil
		}
	}
	return ports.Album{}, false, nil
}

func (m *PhotoLibrary) CreateAlbum(ctx context.Context, title string) (ports.Album, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return ports.Album{}, m.CreateErr
	}
	a := ports.Album{ID: fmt.Sprintf("album-%d", len(m.albums)+1), Title: title}
	m.albums = append(m.albums, a)
	return a, nil
}

func (m *PhotoLibrary) AddVideo(ctx context.Context, album ports.Album, path string) (ports.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddCalls++
	if m.AddErr != nil {
		return ports.Asset{}, m.AddErr
	}
	asset := ports.Asset{
		ID:        fmt.Sprintf("asset-%d", len(m.assets)+1),
		AlbumID:   album.ID,
		Path:      path,
		CreatedAt: time.Now(),
	}
	m.assets = append(m.assets, asset)
	return asset, nil
}

// Albums returns the albums created so far.
func (m *PhotoLibrary) Albums() []ports.Album {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.Album(nil), m.albums...)
}

// Assets returns the assets added so far.
func (m *PhotoLibrary) Assets() []ports.Asset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.Asset(nil), m.assets...)
}

var _ ports.PhotoLibrary = (*PhotoLibrary)(nil)
