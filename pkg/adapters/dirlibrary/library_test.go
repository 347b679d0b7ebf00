package dirlibrary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/user/imageseq/pkg/adapters/osfilesystem"
	"github.com/user/imageseq/pkg/mocks"
	"github.com/user/imageseq/pkg/ports"
)

func TestLibrary_CreateFetchAdd(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(t.TempDir(), "Movie.MOV")
	if err := os.WriteFile(src, []byte("movie bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	lib := New(root, osfilesystem.New())

	if _, found, err := lib.FetchAlbum(ctx, "Trips"); err != nil || found {
		t.Fatalf("FetchAlbum on empty library = found %v, err %v", found, err)
	}

	album, err := lib.CreateAlbum(ctx, "Trips")
	if err != nil {
		t.Fatalf("CreateAlbum failed: %v", err)
	}
	if _, err := uuid.Parse(album.ID); err != nil {
		t.Errorf("album id %q is not a UUID: %v", album.ID, err)
	}

	asset, err := lib.AddVideo(ctx, album, src)
	if err != nil {
		t.Fatalf("AddVideo failed: %v", err)
	}
	if asset.AlbumID != album.ID {
		t.Errorf("asset album = %s, want %s", asset.AlbumID, album.ID)
	}
	if !strings.HasSuffix(asset.Path, ".mov") {
		t.Errorf("asset path %s should keep the lower-cased extension", asset.Path)
	}
	data, err := os.ReadFile(asset.Path)
	if err != nil || string(data) != "movie bytes" {
		t.Errorf("stored copy = %q, %v", data, err)
	}

	// A fresh Library on the same root sees the manifest.
	reopened := New(root, osfilesystem.New())
	got, found, err := reopened.FetchAlbum(ctx, "Trips")
	if err != nil || !found || got.ID != album.ID {
		t.Fatalf("reopened FetchAlbum = %+v, %v, %v", got, found, err)
	}
	assets, err := reopened.Assets(album.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(assets) != 1 || assets[0].ID != asset.ID {
		t.Errorf("assets = %+v, want the added asset", assets)
	}
}

func TestLibrary_AddVideoUnknownAlbum(t *testing.T) {
	fs := mocks.NewFileSystem()
	lib := New("/lib", fs)

	_, err := lib.AddVideo(context.Background(), ports.Album{ID: "missing"}, "/tmp/a.mov")
	if err == nil {
		t.Fatal("expected error for unknown album")
	}
}

func TestLibrary_AddVideoCopyFailure(t *testing.T) {
	fs := mocks.NewFileSystem()
	lib := New("/lib", fs)
	ctx := context.Background()

	album, err := lib.CreateAlbum(ctx, "Trips")
	if err != nil {
		t.Fatal(err)
	}
	_, err = lib.AddVideo(ctx, album, "/tmp/missing.mov")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	assets, _ := lib.Assets(album.ID)
	if len(assets) != 0 {
		t.Error("failed copy must not be recorded")
	}
}

func TestLibrary_CreateAlbumEmptyTitle(t *testing.T) {
	lib := New("/lib", mocks.NewFileSystem())
	if _, err := lib.CreateAlbum(context.Background(), "  "); err == nil {
		t.Error("expected error for blank title")
	}
}

func TestLibrary_CorruptManifest(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFile(filepath.Join("/lib", ManifestName), []byte("albums: [unclosed"))
	lib := New("/lib", fs)

	if _, _, err := lib.FetchAlbum(context.Background(), "Trips"); err == nil {
		t.Error("expected parse error for corrupt manifest")
	}
}
