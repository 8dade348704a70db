package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"catalog-admin/internal/catalogtypes"
	"catalog-admin/internal/config"
	"catalog-admin/internal/logging"
)

// LocalFileStore 实现了 catalogtypes.FileStore 接口，目录树直接映射到本地文件系统。
type LocalFileStore struct {
	root       string // 存储根目录的绝对路径，例如 "/srv/catalog/public/files"
	baseURL    string // 文件访问 URL 前缀，例如 "/catalogointerativo/files"
	extensions map[string]bool
}

// NewLocalFileStore 创建一个新的 LocalFileStore 实例。
// cfg.LocalPath 是文件存储的根目录，不存在时会被创建。
// baseURL 是静态文件访问 URL 的前缀。
func NewLocalFileStore(cfg config.StorageConfig, baseURL string) (*LocalFileStore, error) {
	root, err := filepath.Abs(cfg.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("解析本地存储路径失败 '%s': %w", cfg.LocalPath, err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("创建本地存储目录失败 '%s': %w", root, err)
	}
	return &LocalFileStore{
		root:       root,
		baseURL:    baseURL,
		extensions: extensionSet(cfg.AllowedExtensions),
	}, nil
}

// Root returns the absolute storage root, used to serve files statically.
func (s *LocalFileStore) Root() string { return s.root }

// Type returns "local".
func (s *LocalFileStore) Type() string { return "local" }

// resolve maps a normalized relative path to an absolute path under root.
func (s *LocalFileStore) resolve(rel string) (string, error) {
	rel = catalogtypes.NormalizeDir(rel)
	if rel == "" {
		return s.root, nil
	}
	if strings.Contains(rel, "\x00") {
		return "", catalogtypes.ErrInvalidName
	}
	abs := filepath.Clean(filepath.Join(s.root, filepath.FromSlash(rel)))
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return "", catalogtypes.ErrPathEscape
	}
	return abs, nil
}

// List 返回 dir 下的子文件夹（每个附带其直接包含的图片）与图片。
func (s *LocalFileStore) List(ctx context.Context, dir string) (*catalogtypes.DirListing, error) {
	dir = catalogtypes.NormalizeDir(dir)
	abs, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, catalogtypes.ErrNotFound
		}
		return nil, fmt.Errorf("读取目录信息失败: %w", err)
	}
	if !info.IsDir() {
		return nil, catalogtypes.ErrNotFound
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("读取目录失败: %w", err)
	}

	listing := &catalogtypes.DirListing{
		Categories: []catalogtypes.Category{},
		Images:     []catalogtypes.Image{},
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		rel := catalogtypes.JoinDir(dir, name)
		if e.IsDir() {
			images, err := s.readImages(filepath.Join(abs, name), rel)
			if err != nil {
				logging.Warn("读取分类图片失败", logging.String("dir", rel), logging.Err(err))
				images = []catalogtypes.Image{}
			}
			listing.Categories = append(listing.Categories, s.category(rel, images))
			continue
		}
		if e.Type().IsRegular() && hasAllowedExtension(s.extensions, name) {
			listing.Images = append(listing.Images, s.image(dir, name))
		}
	}
	return listing, nil
}

func (s *LocalFileStore) readImages(abs, rel string) ([]catalogtypes.Image, error) {
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, err
	}
	images := []catalogtypes.Image{}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || !e.Type().IsRegular() {
			continue
		}
		if hasAllowedExtension(s.extensions, name) {
			images = append(images, s.image(rel, name))
		}
	}
	return images, nil
}

func (s *LocalFileStore) category(rel string, images []catalogtypes.Image) catalogtypes.Category {
	name := catalogtypes.BaseName(rel)
	return catalogtypes.Category{
		ID:     CategoryID(rel),
		Name:   name,
		Slug:   Slugify(name),
		Images: images,
	}
}

func (s *LocalFileStore) image(dir, name string) catalogtypes.Image {
	return catalogtypes.Image{
		Name:     name,
		Code:     ImageCode(name),
		URL:      publicURL(s.baseURL, catalogtypes.JoinDir(dir, name)),
		Category: catalogtypes.BaseName(dir),
	}
}

// CreateFolder 在 dir 下创建文件夹。父目录必须存在。
func (s *LocalFileStore) CreateFolder(ctx context.Context, dir, name string) (*catalogtypes.Category, error) {
	name = strings.TrimSpace(name)
	if err := catalogtypes.ValidateEntryName(name); err != nil {
		return nil, err
	}
	dir = catalogtypes.NormalizeDir(dir)
	parent, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(parent); err != nil || !info.IsDir() {
		return nil, catalogtypes.ErrNotFound
	}

	if err := os.Mkdir(filepath.Join(parent, name), 0755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, catalogtypes.ErrAlreadyExists
		}
		return nil, fmt.Errorf("创建文件夹失败: %w", err)
	}

	category := s.category(catalogtypes.JoinDir(dir, name), []catalogtypes.Image{})
	return &category, nil
}

// Upload 将文件保存到 dir 下，先写入临时文件再重命名，同名文件被替换。
func (s *LocalFileStore) Upload(ctx context.Context, input catalogtypes.UploadInput) (*catalogtypes.Image, error) {
	name := filepath.Base(strings.ReplaceAll(strings.TrimSpace(input.FileName), "\\", "/"))
	if err := catalogtypes.ValidateEntryName(name); err != nil {
		return nil, err
	}
	if !hasAllowedExtension(s.extensions, name) {
		return nil, catalogtypes.ErrUnsupportedType
	}
	parent, err := s.resolve(input.Dir)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(parent); err != nil || !info.IsDir() {
		return nil, catalogtypes.ErrNotFound
	}

	tmp, err := os.CreateTemp(parent, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmp.Name()

	written, err := io.Copy(tmp, input.Reader)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("写入文件失败: %w", err)
	}
	if input.Size > 0 && written != input.Size {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("文件大小不匹配: 预期 %d, 实际写入 %d", input.Size, written)
	}

	if err := os.Rename(tmpPath, filepath.Join(parent, name)); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("保存文件失败: %w", err)
	}

	dir := catalogtypes.NormalizeDir(input.Dir)
	image := s.image(dir, name)
	return &image, nil
}

// Delete 删除 dir 下的文件或文件夹（递归）。
func (s *LocalFileStore) Delete(ctx context.Context, dir, name string) (catalogtypes.EntryKind, error) {
	if err := catalogtypes.ValidateEntryName(name); err != nil {
		return "", err
	}
	target, err := s.resolve(catalogtypes.JoinDir(catalogtypes.NormalizeDir(dir), name))
	if err != nil {
		return "", err
	}
	if target == s.root {
		return "", catalogtypes.ErrInvalidName
	}

	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", catalogtypes.ErrNotFound
		}
		return "", fmt.Errorf("读取文件信息失败: %w", err)
	}

	if info.IsDir() {
		if err := os.RemoveAll(target); err != nil {
			return "", fmt.Errorf("删除文件夹失败: %w", err)
		}
		return catalogtypes.EntryFolder, nil
	}
	if err := os.Remove(target); err != nil {
		return "", fmt.Errorf("删除文件失败: %w", err)
	}
	return catalogtypes.EntryFile, nil
}
