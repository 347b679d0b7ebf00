// Package dirlibrary implements ports.PhotoLibrary as a directory tree.
//
// Layout:
//
//	<root>/library.yaml          manifest of albums and assets
//	<root>/<album id>/<asset id>.<ext>
package dirlibrary

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/imageseq/pkg/ports"
	"gopkg.in/yaml.v3"
)

// ManifestName is the manifest file name under the library root.
const ManifestName = "library.yaml"

type manifest struct {
	Albums []albumEntry `yaml:"albums"`
	Assets []assetEntry `yaml:"assets"`
}

type albumEntry struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	CreatedAt time.Time `yaml:"created_at"`
}

type assetEntry struct {
	ID        string    `yaml:"id"`
	AlbumID   string    `yaml:"album_id"`
	File      string    `yaml:"file"`     // Relative to the library root
	Original  string    `yaml:"original"` // Source path at import time
	CreatedAt time.Time `yaml:"created_at"`
}

// Library stores albums as directories under root.
type Library struct {
	root string
	fs   ports.FileSystem
	now  func() time.Time

	mu sync.Mutex
}

// New creates a Library rooted at root. The directory is created on first write.
func New(root string, fs ports.FileSystem) *Library {
	return &Library{root: root, fs: fs, now: time.Now}
}

// Root returns the library root directory.
func (l *Library) Root() string {
	return l.root
}

// FetchAlbum looks up an album by exact title.
func (l *Library) FetchAlbum(ctx context.Context, title string) (ports.Album, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := l.load()
	if err != nil {
		return ports.Album{}, false, err
	}
	for _, a := range m.Albums {
		if a.Title == title {
			return ports.Album{ID: a.ID, Title: a.Title}, true, nil
		}
	}
	return ports.Album{}, false, nil
}

// CreateAlbum adds a new album. Titles are not required to be unique.
func (l *Library) CreateAlbum(ctx context.Context, title string) (ports.Album, error) {
	if strings.TrimSpace(title) == "" {
		return ports.Album{}, fmt.Errorf("album title must not be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := l.load()
	if err != nil {
		return ports.Album{}, err
	}
	entry := albumEntry{ID: uuid.NewString(), Title: title, CreatedAt: l.now().UTC()}
	if err := l.fs.MkdirAll(filepath.Join(l.root, entry.ID)); err != nil {
		return ports.Album{}, fmt.Errorf("create album directory: %w", err)
	}
	m.Albums = append(m.Albums, entry)
	if err := l.save(m); err != nil {
		return ports.Album{}, err
	}
	return ports.Album{ID: entry.ID, Title: entry.Title}, nil
}

// AddVideo copies the file at path into the album directory and records it.
func (l *Library) AddVideo(ctx context.Context, album ports.Album, path string) (ports.Asset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := l.load()
	if err != nil {
		return ports.Asset{}, err
	}
	if !hasAlbum(m, album.ID) {
		return ports.Asset{}, fmt.Errorf("album %s not found", album.ID)
	}

	entry := assetEntry{
		ID:        uuid.NewString(),
		AlbumID:   album.ID,
		Original:  path,
		CreatedAt: l.now().UTC(),
	}
	entry.File = filepath.Join(album.ID, entry.ID+strings.ToLower(filepath.Ext(path)))
	dst := filepath.Join(l.root, entry.File)

	if err := l.fs.CopyFile(path, dst); err != nil {
		return ports.Asset{}, fmt.Errorf("copy video: %w", err)
	}
	m.Assets = append(m.Assets, entry)
	if err := l.save(m); err != nil {
		l.fs.Remove(dst)
		return ports.Asset{}, err
	}

	return ports.Asset{
		ID:        entry.ID,
		AlbumID:   entry.AlbumID,
		Path:      dst,
		CreatedAt: entry.CreatedAt,
	}, nil
}

// Assets lists the assets of an album in insertion order.
func (l *Library) Assets(albumID string) ([]ports.Asset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := l.load()
	if err != nil {
		return nil, err
	}
	var out []ports.Asset
	for _, a := range m.Assets {
		if a.AlbumID != albumID {
			continue
		}
		out = append(out, ports.Asset{
			ID:        a.ID,
			AlbumID:   a.AlbumID,
			Path:      filepath.Join(l.root, a.File),
			CreatedAt: a.CreatedAt,
		})
	}
	return out, nil
}

func (l *Library) manifestPath() string {
	return filepath.Join(l.root, ManifestName)
}

func (l *Library) load() (manifest, error) {
	var m manifest
	exists, err := l.fs.Exists(l.manifestPath())
	if err != nil {
		return m, fmt.Errorf("check manifest: %w", err)
	}
	if !exists {
		return m, nil
	}
	data, err := l.fs.ReadFile(l.manifestPath())
	if err != nil {
		return m, fmt.Errorf("read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

func (l *Library) save(m manifest) error {
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := l.fs.WriteFile(l.manifestPath(), data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func hasAlbum(m manifest, id string) bool {
	for _, a := range m.Albums {
		if a.ID == id {
			return true
		}
	}
	return false
}

var _ ports.PhotoLibrary = (*Library)(nil)
