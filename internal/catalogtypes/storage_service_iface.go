// internal/catalogtypes/storage_service_iface.go
package catalogtypes

import (
	"context"
	"errors"
)

// Errors returned by FileStore implementations. Handlers map them to HTTP status codes.
var (
	ErrNotFound        = errors.New("文件或文件夹不存在")
	ErrAlreadyExists   = errors.New("同名文件夹已存在")
	ErrPathEscape      = errors.New("路径超出存储根目录")
	ErrInvalidName     = errors.New("名称无效")
	ErrUnsupportedType = errors.New("不支持的文件类型")
)

// DirListing 是某个目录下的原始内容，尚未分页。
type DirListing struct {
	Categories []Category
	Images     []Image
}

// FileStore 定义了目录树存储的操作接口，本地文件系统与 S3 各有一个实现。
// 所有 dir 参数都是已规范化的相对路径，"" 表示根目录。
type FileStore interface {
	// List 返回 dir 下的子文件夹与图片，顺序稳定（按名称排序）。
	List(ctx context.Context, dir string) (*DirListing, error)

	// CreateFolder 在 dir 下创建名为 name 的文件夹。
	CreateFolder(ctx context.Context, dir, name string) (*Category, error)

	// Upload 将上传内容写入 dir，同名文件会被替换。
	Upload(ctx context.Context, input UploadInput) (*Image, error)

	// Delete 删除 dir 下的 name，文件夹会被递归删除。
	Delete(ctx context.Context, dir, name string) (EntryKind, error)

	// Type 返回存储类型标识 ("local", "s3")。
	Type() string
}

// EntryKind tells whether a deleted entry was a folder or a file.
type EntryKind string

const (
	EntryFolder EntryKind = "folder"
	EntryFile   EntryKind = "file"
)
