package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"catalog-admin/internal/catalogtypes"
	"catalog-admin/internal/config"
)

func newTestLocalStore(t *testing.T) (*LocalFileStore, string) {
	t.Helper()
	root := t.TempDir()
	store, err := NewLocalFileStore(config.StorageConfig{
		LocalPath:         root,
		AllowedExtensions: []string{".jpg", "png"},
	}, "/catalogointerativo/files")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store, root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLocalFileStore_ListRoot(t *testing.T) {
	store, root := newTestLocalStore(t)
	ctx := context.Background()

	writeFile(t, filepath.Join(root, "Shoes", "A1.jpg"), "a")
	writeFile(t, filepath.Join(root, "Shoes", "notes.txt"), "skip")
	writeFile(t, filepath.Join(root, "Bags", "B1.png"), "b")
	writeFile(t, filepath.Join(root, ".hidden", "x.jpg"), "x")

	listing, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listing.Categories) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(listing.Categories))
	}
	// os.ReadDir 按名称排序
	if listing.Categories[0].Name != "Bags" || listing.Categories[1].Name != "Shoes" {
		t.Errorf("Unexpected category order: %+v", listing.Categories)
	}
	shoes := listing.Categories[1]
	if shoes.Slug != "shoes" {
		t.Errorf("Expected slug shoes, got %s", shoes.Slug)
	}
	if shoes.ID != CategoryID("Shoes") {
		t.Errorf("Expected deterministic id, got %s", shoes.ID)
	}
	if len(shoes.Images) != 1 {
		t.Fatalf("Expected 1 image in Shoes, got %d", len(shoes.Images))
	}
	img := shoes.Images[0]
	if img.Code != "A1" || img.Category != "Shoes" {
		t.Errorf("Unexpected image: %+v", img)
	}
	if img.URL != "/catalogointerativo/files/Shoes/A1.jpg" {
		t.Errorf("Unexpected image URL: %s", img.URL)
	}
}

func TestLocalFileStore_ListMissingDir(t *testing.T) {
	store, _ := newTestLocalStore(t)
	_, err := store.List(context.Background(), "nope")
	if !errors.Is(err, catalogtypes.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLocalFileStore_ListStripsFilesPrefix(t *testing.T) {
	store, root := newTestLocalStore(t)
	writeFile(t, filepath.Join(root, "Shoes", "A1.jpg"), "a")

	listing, err := store.List(context.Background(), "files/Shoes")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listing.Images) != 1 || listing.Images[0].Name != "A1.jpg" {
		t.Errorf("Expected A1.jpg in listing, got %+v", listing.Images)
	}
}

func TestLocalFileStore_CreateFolder(t *testing.T) {
	store, root := newTestLocalStore(t)
	ctx := context.Background()

	cat, err := store.CreateFolder(ctx, "", "  Tênis  ")
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	if cat.Name != "Tênis" || cat.Slug != "tenis" {
		t.Errorf("Unexpected category: %+v", cat)
	}
	if info, err := os.Stat(filepath.Join(root, "Tênis")); err != nil || !info.IsDir() {
		t.Errorf("Expected folder on disk, got err %v", err)
	}

	if _, err := store.CreateFolder(ctx, "", "Tênis"); !errors.Is(err, catalogtypes.ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists, got %v", err)
	}
	if _, err := store.CreateFolder(ctx, "", "   "); !errors.Is(err, catalogtypes.ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName, got %v", err)
	}
	if _, err := store.CreateFolder(ctx, "", "a/b"); !errors.Is(err, catalogtypes.ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName for nested name, got %v", err)
	}
	if _, err := store.CreateFolder(ctx, "missing", "x"); !errors.Is(err, catalogtypes.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing parent, got %v", err)
	}
}

func TestLocalFileStore_UploadReplaces(t *testing.T) {
	store, root := newTestLocalStore(t)
	ctx := context.Background()
	if err := os.Mkdir(filepath.Join(root, "Shoes"), 0755); err != nil {
		t.Fatal(err)
	}

	img, err := store.Upload(ctx, catalogtypes.UploadInput{
		Dir:      "Shoes",
		FileName: "A1.jpg",
		Size:     5,
		Reader:   strings.NewReader("first"),
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if img.Code != "A1" || img.Category != "Shoes" {
		t.Errorf("Unexpected image: %+v", img)
	}

	if _, err := store.Upload(ctx, catalogtypes.UploadInput{
		Dir:      "Shoes",
		FileName: "A1.jpg",
		Reader:   strings.NewReader("second"),
	}); err != nil {
		t.Fatalf("Second upload failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "Shoes", "A1.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("Expected replaced content, got %q", data)
	}

	entries, _ := os.ReadDir(filepath.Join(root, "Shoes"))
	if len(entries) != 1 {
		t.Errorf("Expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestLocalFileStore_UploadRejects(t *testing.T) {
	store, _ := newTestLocalStore(t)
	ctx := context.Background()

	_, err := store.Upload(ctx, catalogtypes.UploadInput{FileName: "script.sh", Reader: strings.NewReader("x")})
	if !errors.Is(err, catalogtypes.ErrUnsupportedType) {
		t.Errorf("Expected ErrUnsupportedType, got %v", err)
	}

	_, err = store.Upload(ctx, catalogtypes.UploadInput{Dir: "missing", FileName: "a.jpg", Reader: strings.NewReader("x")})
	if !errors.Is(err, catalogtypes.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	_, err = store.Upload(ctx, catalogtypes.UploadInput{FileName: "a.jpg", Size: 10, Reader: strings.NewReader("x")})
	if err == nil {
		t.Error("Expected size mismatch error")
	}
}

func TestLocalFileStore_Delete(t *testing.T) {
	store, root := newTestLocalStore(t)
	ctx := context.Background()
	writeFile(t, filepath.Join(root, "Shoes", "Boots", "B1.jpg"), "b")
	writeFile(t, filepath.Join(root, "Shoes", "A1.jpg"), "a")

	kind, err := store.Delete(ctx, "Shoes", "A1.jpg")
	if err != nil || kind != catalogtypes.EntryFile {
		t.Fatalf("Expected file delete, got %v %v", kind, err)
	}

	kind, err = store.Delete(ctx, "", "Shoes")
	if err != nil || kind != catalogtypes.EntryFolder {
		t.Fatalf("Expected recursive folder delete, got %v %v", kind, err)
	}
	if _, err := os.Stat(filepath.Join(root, "Shoes")); !os.IsNotExist(err) {
		t.Errorf("Expected Shoes to be removed, got %v", err)
	}

	if _, err := store.Delete(ctx, "", "Shoes"); !errors.Is(err, catalogtypes.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := store.Delete(ctx, "", ".."); !errors.Is(err, catalogtypes.ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName, got %v", err)
	}
	if _, err := store.Delete(ctx, "", ""); !errors.Is(err, catalogtypes.ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName for empty path, got %v", err)
	}
}

func TestLocalFileStore_ResolveStaysInRoot(t *testing.T) {
	store, root := newTestLocalStore(t)
	abs, err := store.resolve("../../etc/passwd")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !strings.HasPrefix(abs, store.Root()) {
		t.Errorf("Expected %s to stay under %s", abs, root)
	}
}
