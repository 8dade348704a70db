package apiserver

import (
	"encoding/json"
	"net/http"
	"time"

	"catalog-admin/internal/logging"
)

// ErrorResponse 是 API 错误响应的通用结构体。
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// MessageResponse 是只携带提示信息的响应。
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSONResponse 是一个辅助函数，用于发送 JSON 响应。
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// 头部已发送，只能记录
			logging.Warn("无法编码 JSON 响应", logging.Err(err))
		}
	}
}

// writeJSONError 发送 {error, timestamp} 格式的错误响应。
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{
		Error:     message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeJSONErrorDetail 发送 {error, message, timestamp}：error 是概括，message 是具体原因。
func writeJSONErrorDetail(w http.ResponseWriter, summary string, detail string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{
		Error:     summary,
		Message:   detail,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeInternalError 记录错误并返回 500。
func writeInternalError(w http.ResponseWriter, r *http.Request, summary string, err error) {
	logging.WithContext(r.Context()).Error(summary, logging.Err(err))
	writeJSONErrorDetail(w, summary, err.Error(), http.StatusInternalServerError)
}
