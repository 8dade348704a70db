package apiserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"catalog-admin/internal/catalogtypes"
	"catalog-admin/internal/config"
	"catalog-admin/internal/services"
)

const (
	defaultMaxMemory = 32 << 20 // multipart 表单在内存中保留的最大字节数
	formOverhead     = 1 << 20  // 表单字段与 multipart 边界的额外余量
)

// FilesHandler 封装了目录文件相关的 HTTP 处理器方法。
type FilesHandler struct {
	fileService services.FileService
	cfg         config.StorageConfig
}

// NewFilesHandler 创建一个新的 FilesHandler 实例。
func NewFilesHandler(fileService services.FileService, cfg config.StorageConfig) *FilesHandler {
	return &FilesHandler{fileService: fileService, cfg: cfg}
}

// CreateFolderResponse 是创建文件夹成功后的响应体。
type CreateFolderResponse struct {
	Message  string                 `json:"message"`
	Category *catalogtypes.Category `json:"category"`
}

// UploadResponse 是上传成功后的响应体。
type UploadResponse struct {
	Message string              `json:"message"`
	Image   *catalogtypes.Image `json:"image"`
}

// DeleteResponse 是删除成功后的响应体。
type DeleteResponse struct {
	Message string                 `json:"message"`
	Kind    catalogtypes.EntryKind `json:"kind"`
}

// writeStoreError 把存储层的哨兵错误映射为 HTTP 状态码。
func writeStoreError(w http.ResponseWriter, r *http.Request, summary string, err error) {
	switch {
	case errors.Is(err, catalogtypes.ErrInvalidName),
		errors.Is(err, catalogtypes.ErrPathEscape),
		errors.Is(err, catalogtypes.ErrUnsupportedType):
		writeJSONErrorDetail(w, summary, err.Error(), http.StatusBadRequest)
	case errors.Is(err, catalogtypes.ErrAlreadyExists):
		writeJSONErrorDetail(w, summary, err.Error(), http.StatusConflict)
	case errors.Is(err, catalogtypes.ErrNotFound):
		writeJSONErrorDetail(w, summary, err.Error(), http.StatusNotFound)
	default:
		writeInternalError(w, r, summary, err)
	}
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

// ListFiles 处理 GET /api/files?dir=&page=&limit=。
func (h *FilesHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")
	resp, err := h.fileService.List(r.Context(), dir, queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeStoreError(w, r, "读取目录失败", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *FilesHandler) maxUploadBytes() int64 {
	max := h.cfg.MaxFileSizeMB << 20
	if max <= 0 {
		max = defaultMaxMemory
	}
	return max
}

// PostFiles 处理 POST /api/files 的 multipart 表单，按 action 分派到建文件夹或上传。
func (h *FilesHandler) PostFiles(w http.ResponseWriter, r *http.Request) {
	maxUpload := h.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+formOverhead)

	if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg := fmt.Sprintf("上传文件过大，最大允许 %d MB", maxUpload>>20)
			writeJSONErrorDetail(w, "请求体过大", msg, http.StatusRequestEntityTooLarge)
		} else {
			writeJSONErrorDetail(w, "解析表单失败", err.Error(), http.StatusBadRequest)
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	switch action := r.FormValue("action"); action {
	case "createFolder":
		h.createFolder(w, r)
	case "upload":
		h.upload(w, r)
	default:
		writeJSONErrorDetail(w, "无效的操作", fmt.Sprintf("不支持的 action: %q", action), http.StatusBadRequest)
	}
}

func (h *FilesHandler) createFolder(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("folderName"))
	if name == "" {
		writeJSONErrorDetail(w, "创建文件夹失败", "文件夹名称不能为空", http.StatusBadRequest)
		return
	}

	category, err := h.fileService.CreateFolder(r.Context(), r.FormValue("dir"), name)
	if err != nil {
		writeStoreError(w, r, "创建文件夹失败", err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, CreateFolderResponse{
		Message:  fmt.Sprintf("文件夹 %s 创建成功", category.Name),
		Category: category,
	})
}

func (h *FilesHandler) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeJSONErrorDetail(w, "上传失败", "请求中缺少 'file' 字段", http.StatusBadRequest)
		} else {
			writeJSONErrorDetail(w, "上传失败", err.Error(), http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	// MaxBytesReader 针对整个请求体，这里再检查单个文件
	maxUpload := h.maxUploadBytes()
	if header.Size > maxUpload {
		msg := fmt.Sprintf("上传文件过大，最大允许 %d MB", maxUpload>>20)
		writeJSONErrorDetail(w, "请求体过大", msg, http.StatusRequestEntityTooLarge)
		return
	}

	image, err := h.fileService.Upload(r.Context(), catalogtypes.UploadInput{
		Dir:      r.FormValue("dir"),
		FileName: header.Filename,
		Size:     header.Size,
		MimeType: header.Header.Get("Content-Type"),
		Reader:   file,
	})
	if err != nil {
		writeStoreError(w, r, "上传失败", err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, UploadResponse{
		Message: fmt.Sprintf("文件 %s 上传成功", image.Name),
		Image:   image,
	})
}

// DeleteEntry 处理 DELETE /api/files?dir=&path=，path 可以是文件或文件夹。
func (h *FilesHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := strings.TrimSpace(q.Get("path"))
	if name == "" {
		writeJSONErrorDetail(w, "删除失败", "缺少 path 参数", http.StatusBadRequest)
		return
	}

	kind, err := h.fileService.Delete(r.Context(), q.Get("dir"), name)
	if err != nil {
		writeStoreError(w, r, "删除失败", err)
		return
	}

	msg := fmt.Sprintf("文件 %s 已删除", name)
	if kind == catalogtypes.EntryFolder {
		msg = fmt.Sprintf("文件夹 %s 已删除", name)
	}
	writeJSONResponse(w, http.StatusOK, DeleteResponse{Message: msg, Kind: kind})
}
