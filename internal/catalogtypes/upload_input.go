package catalogtypes

import "io"

// UploadInput 定义了一次图片上传的传输结构。
type UploadInput struct {
	Dir      string    // 目标目录（已规范化）
	FileName string    // 原始文件名
	Size     int64     // 文件大小 (字节)
	MimeType string    // 客户端声明的 MIME 类型
	Reader   io.Reader // 文件内容
}
