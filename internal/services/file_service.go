package services

import (
	"context"
	"strings"

	"catalog-admin/internal/catalogtypes"
	"catalog-admin/internal/config"
	"catalog-admin/internal/logging"
	"catalog-admin/internal/metrics"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// FileService 定义了目录文件管理服务的接口。
type FileService interface {
	List(ctx context.Context, dir string, page, limit int) (*catalogtypes.FilesResponse, error)
	CreateFolder(ctx context.Context, dir, name string) (*catalogtypes.Category, error)
	Upload(ctx context.Context, input catalogtypes.UploadInput) (*catalogtypes.Image, error)
	Delete(ctx context.Context, dir, name string) (catalogtypes.EntryKind, error)
}

// fileService 是 FileService 的实现。
type fileService struct {
	store     catalogtypes.FileStore
	publisher catalogtypes.EventPublisher
	pageLimit int
}

// NewFileService 创建一个新的 FileService 实例。publisher 可以为 nil。
func NewFileService(store catalogtypes.FileStore, publisher catalogtypes.EventPublisher, cfg config.StorageConfig) FileService {
	limit := cfg.PageLimit
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	return &fileService{store: store, publisher: publisher, pageLimit: limit}
}

// List 列出 dir 并分页：目录下有子文件夹时对 categories 分页，否则对 images 分页。
func (s *fileService) List(ctx context.Context, dir string, page, limit int) (*catalogtypes.FilesResponse, error) {
	dir = catalogtypes.NormalizeDir(dir)
	if limit <= 0 {
		limit = s.pageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	listing, err := s.store.List(ctx, dir)
	if err != nil {
		return nil, err
	}

	resp := &catalogtypes.FilesResponse{
		Categories: []catalogtypes.Category{},
		Images:     listing.Images,
	}
	if len(listing.Categories) > 0 {
		resp.Pagination = catalogtypes.NewPagination(len(listing.Categories), page, limit)
		start, end := resp.Pagination.Window()
		resp.Categories = listing.Categories[start:end]
	} else {
		resp.Pagination = catalogtypes.NewPagination(len(listing.Images), page, limit)
		start, end := resp.Pagination.Window()
		resp.Images = listing.Images[start:end]
	}
	return resp, nil
}

// CreateFolder 校验名称后创建文件夹并发布 folder.created 事件。
func (s *fileService) CreateFolder(ctx context.Context, dir, name string) (*catalogtypes.Category, error) {
	dir = catalogtypes.NormalizeDir(dir)
	name = strings.TrimSpace(name)
	if err := catalogtypes.ValidateEntryName(name); err != nil {
		metrics.RecordFileMutation("create_folder", false)
		return nil, err
	}

	category, err := s.store.CreateFolder(ctx, dir, name)
	metrics.RecordFileMutation("create_folder", err == nil)
	if err != nil {
		return nil, err
	}

	logging.WithContext(ctx).Info("文件夹已创建", logging.String("dir", dir), logging.String("name", name))
	publishEvent(ctx, s.publisher, catalogtypes.Event{Type: catalogtypes.FolderCreatedEvent, Dir: dir, Name: name})
	return category, nil
}

// Upload 保存图片并发布 image.uploaded 事件。
func (s *fileService) Upload(ctx context.Context, input catalogtypes.UploadInput) (*catalogtypes.Image, error) {
	input.Dir = catalogtypes.NormalizeDir(input.Dir)

	image, err := s.store.Upload(ctx, input)
	metrics.RecordFileMutation("upload", err == nil)
	if err != nil {
		return nil, err
	}
	metrics.RecordUploadBytes(input.Size)

	logging.WithContext(ctx).Info("图片已上传",
		logging.String("dir", input.Dir),
		logging.String("name", image.Name),
		logging.Int64("size", input.Size),
	)
	publishEvent(ctx, s.publisher, catalogtypes.Event{Type: catalogtypes.ImageUploadedEvent, Dir: input.Dir, Name: image.Name})
	return image, nil
}

// Delete 删除文件或文件夹并发布 entry.deleted 事件。
func (s *fileService) Delete(ctx context.Context, dir, name string) (catalogtypes.EntryKind, error) {
	dir = catalogtypes.NormalizeDir(dir)
	name = strings.TrimSpace(name)

	kind, err := s.store.Delete(ctx, dir, name)
	metrics.RecordFileMutation("delete", err == nil)
	if err != nil {
		return "", err
	}

	logging.WithContext(ctx).Info("条目已删除",
		logging.String("dir", dir),
		logging.String("name", name),
		logging.String("kind", string(kind)),
	)
	publishEvent(ctx, s.publisher, catalogtypes.Event{Type: catalogtypes.EntryDeletedEvent, Dir: dir, Name: name})
	return kind, nil
}
