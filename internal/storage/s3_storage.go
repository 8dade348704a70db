package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"catalog-admin/internal/catalogtypes"
	"catalog-admin/internal/config"
	"catalog-admin/internal/logging"
	"catalog-admin/internal/metrics"
)

// s3API is the subset of *s3.Client used by S3FileStore.
type s3API interface {
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3 DeleteObjects 单次最多 1000 个 key。
const s3DeleteBatch = 1000

// S3FileStore 实现了 catalogtypes.FileStore 接口。文件夹是以 "/" 结尾的 key 前缀，
// 新建的空文件夹用一个零字节的 "<dir>/" 标记对象表示。
type S3FileStore struct {
	client     s3API
	bucket     string
	prefix     string // 所有 key 的公共前缀，为空或以 "/" 结尾
	baseURL    string
	extensions map[string]bool
}

// NewS3FileStore 根据配置创建 S3FileStore。Endpoint 非空时使用 path-style 访问 (MinIO 等)。
func NewS3FileStore(ctx context.Context, cfg config.StorageConfig) (*S3FileStore, error) {
	s3cfg := cfg.S3
	if s3cfg.BucketName == "" {
		return nil, errors.New("S3 存储需要配置 STORAGE.S3.BUCKET_NAME")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(s3cfg.Region)}
	if s3cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3FileStore(client, cfg), nil
}

func newS3FileStore(client s3API, cfg config.StorageConfig) *S3FileStore {
	s3cfg := cfg.S3
	prefix := strings.Trim(s3cfg.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	baseURL := s3cfg.PublicURL
	switch {
	case baseURL != "":
	case s3cfg.Endpoint != "":
		baseURL = strings.TrimSuffix(s3cfg.Endpoint, "/") + "/" + s3cfg.BucketName
	default:
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s3cfg.BucketName, s3cfg.Region)
	}

	return &S3FileStore{
		client:     client,
		bucket:     s3cfg.BucketName,
		prefix:     prefix,
		baseURL:    baseURL,
		extensions: extensionSet(cfg.AllowedExtensions),
	}
}

// Type returns "s3".
func (s *S3FileStore) Type() string { return "s3" }

// dirKey 返回目录对应的 key 前缀（以 "/" 结尾；根目录为 s.prefix）。
func (s *S3FileStore) dirKey(dir string) string {
	if dir == "" {
		return s.prefix
	}
	return s.prefix + dir + "/"
}

func (s *S3FileStore) image(dir, name string) catalogtypes.Image {
	return catalogtypes.Image{
		Name:     name,
		Code:     ImageCode(name),
		URL:      publicURL(s.baseURL, s.prefix+catalogtypes.JoinDir(dir, name)),
		Category: catalogtypes.BaseName(dir),
	}
}

// listLevel lists one level below keyPrefix: sub-folder names and file names.
func (s *S3FileStore) listLevel(ctx context.Context, keyPrefix string) (folders, files []string, found bool, err error) {
	start := time.Now()
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(keyPrefix),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			metrics.RecordS3Operation("list_objects", time.Since(start), false)
			return nil, nil, false, fmt.Errorf("list objects %s: %w", keyPrefix, err)
		}
		for _, cp := range page.CommonPrefixes {
			found = true
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), keyPrefix), "/")
			if name != "" && !strings.HasPrefix(name, ".") {
				folders = append(folders, name)
			}
		}
		for _, obj := range page.Contents {
			found = true
			name := strings.TrimPrefix(aws.ToString(obj.Key), keyPrefix)
			if name == "" || strings.HasPrefix(name, ".") {
				continue // 文件夹标记对象
			}
			files = append(files, name)
		}
	}
	metrics.RecordS3Operation("list_objects", time.Since(start), true)
	return folders, files, found, nil
}

// List 返回 dir 下的子文件夹与图片。
func (s *S3FileStore) List(ctx context.Context, dir string) (*catalogtypes.DirListing, error) {
	dir = catalogtypes.NormalizeDir(dir)
	folders, files, found, err := s.listLevel(ctx, s.dirKey(dir))
	if err != nil {
		return nil, err
	}
	if dir != "" && !found {
		return nil, catalogtypes.ErrNotFound
	}

	listing := &catalogtypes.DirListing{
		Categories: []catalogtypes.Category{},
		Images:     []catalogtypes.Image{},
	}
	for _, name := range folders {
		rel := catalogtypes.JoinDir(dir, name)
		_, subFiles, _, err := s.listLevel(ctx, s.dirKey(rel))
		if err != nil {
			return nil, err
		}
		images := []catalogtypes.Image{}
		for _, f := range subFiles {
			if hasAllowedExtension(s.extensions, f) {
				images = append(images, s.image(rel, f))
			}
		}
		listing.Categories = append(listing.Categories, catalogtypes.Category{
			ID:     CategoryID(rel),
			Name:   name,
			Slug:   Slugify(name),
			Images: images,
		})
	}
	for _, f := range files {
		if hasAllowedExtension(s.extensions, f) {
			listing.Images = append(listing.Images, s.image(dir, f))
		}
	}
	return listing, nil
}

// exists reports whether any object lives under keyPrefix.
func (s *S3FileStore) exists(ctx context.Context, keyPrefix string) (bool, error) {
	start := time.Now()
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(keyPrefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		metrics.RecordS3Operation("list_objects", time.Since(start), false)
		return false, fmt.Errorf("list objects %s: %w", keyPrefix, err)
	}
	metrics.RecordS3Operation("list_objects", time.Since(start), true)
	return len(out.Contents) > 0, nil
}

// CreateFolder 写入 "<dir>/<name>/" 标记对象。
func (s *S3FileStore) CreateFolder(ctx context.Context, dir, name string) (*catalogtypes.Category, error) {
	name = strings.TrimSpace(name)
	if err := catalogtypes.ValidateEntryName(name); err != nil {
		return nil, err
	}
	dir = catalogtypes.NormalizeDir(dir)
	if dir != "" {
		ok, err := s.exists(ctx, s.dirKey(dir))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, catalogtypes.ErrNotFound
		}
	}

	rel := catalogtypes.JoinDir(dir, name)
	key := s.dirKey(rel)
	taken, err := s.exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, catalogtypes.ErrAlreadyExists
	}

	start := time.Now()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          strings.NewReader(""),
		ContentLength: aws.Int64(0),
	})
	if err != nil {
		metrics.RecordS3Operation("put_object", time.Since(start), false)
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}
	metrics.RecordS3Operation("put_object", time.Since(start), true)

	return &catalogtypes.Category{
		ID:     CategoryID(rel),
		Name:   name,
		Slug:   Slugify(name),
		Images: []catalogtypes.Image{},
	}, nil
}

// Upload 将内容写入 "<dir>/<file>"，同名对象被覆盖。
func (s *S3FileStore) Upload(ctx context.Context, input catalogtypes.UploadInput) (*catalogtypes.Image, error) {
	name := strings.TrimSpace(input.FileName)
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	if err := catalogtypes.ValidateEntryName(name); err != nil {
		return nil, err
	}
	if !hasAllowedExtension(s.extensions, name) {
		return nil, catalogtypes.ErrUnsupportedType
	}
	dir := catalogtypes.NormalizeDir(input.Dir)
	if dir != "" {
		ok, err := s.exists(ctx, s.dirKey(dir))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, catalogtypes.ErrNotFound
		}
	}

	key := s.dirKey(dir) + name
	put := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   input.Reader,
	}
	if input.Size > 0 {
		put.ContentLength = aws.Int64(input.Size)
	}
	if input.MimeType != "" {
		put.ContentType = aws.String(input.MimeType)
	}

	start := time.Now()
	if _, err := s.client.PutObject(ctx, put); err != nil {
		metrics.RecordS3Operation("put_object", time.Since(start), false)
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}
	metrics.RecordS3Operation("put_object", time.Since(start), true)
	logging.Debug("S3 put object", logging.String("key", key), logging.Int64("size", input.Size))

	image := s.image(dir, name)
	return &image, nil
}

// Delete 删除单个对象，或递归删除整个前缀。
func (s *S3FileStore) Delete(ctx context.Context, dir, name string) (catalogtypes.EntryKind, error) {
	if err := catalogtypes.ValidateEntryName(name); err != nil {
		return "", err
	}
	rel := catalogtypes.JoinDir(catalogtypes.NormalizeDir(dir), name)
	key := s.prefix + rel

	start := time.Now()
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		metrics.RecordS3Operation("head_object", time.Since(start), true)
		start = time.Now()
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}); err != nil {
			metrics.RecordS3Operation("delete_object", time.Since(start), false)
			return "", fmt.Errorf("delete object %s: %w", key, err)
		}
		metrics.RecordS3Operation("delete_object", time.Since(start), true)
		return catalogtypes.EntryFile, nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		metrics.RecordS3Operation("head_object", time.Since(start), false)
		return "", fmt.Errorf("head object %s: %w", key, err)
	}

	deleted, err := s.deletePrefix(ctx, key+"/")
	if err != nil {
		return "", err
	}
	if deleted == 0 {
		return "", catalogtypes.ErrNotFound
	}
	return catalogtypes.EntryFolder, nil
}

func (s *S3FileStore) deletePrefix(ctx context.Context, keyPrefix string) (int, error) {
	var keys []types.ObjectIdentifier
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(keyPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("list objects %s: %w", keyPrefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, types.ObjectIdentifier{Key: obj.Key})
		}
	}

	for i := 0; i < len(keys); i += s3DeleteBatch {
		end := i + s3DeleteBatch
		if end > len(keys) {
			end = len(keys)
		}
		start := time.Now()
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: keys[i:end], Quiet: aws.Bool(true)},
		})
		if err != nil {
			metrics.RecordS3Operation("delete_objects", time.Since(start), false)
			return 0, fmt.Errorf("delete objects under %s: %w", keyPrefix, err)
		}
		// Quiet 模式下只返回失败的对象
		if len(out.Errors) > 0 {
			metrics.RecordS3Operation("delete_objects", time.Since(start), false)
			first := out.Errors[0]
			return 0, fmt.Errorf("delete objects under %s: %d of %d failed, first %s: %s",
				keyPrefix, len(out.Errors), end-i, aws.ToString(first.Key), aws.ToString(first.Message))
		}
		metrics.RecordS3Operation("delete_objects", time.Since(start), true)
	}
	logging.Debug("S3 delete prefix", logging.String("prefix", keyPrefix), logging.Int("count", len(keys)))
	return len(keys), nil
}
