package apiserver

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"catalog-admin/internal/auth"
	"catalog-admin/internal/config"
	"catalog-admin/internal/logging"
	"catalog-admin/internal/metrics"
	"catalog-admin/internal/middleware"
)

// RouterDeps 汇总构建 API 路由所需的依赖。
type RouterDeps struct {
	Config    config.Config
	Files     *FilesHandler
	Orders    *OrderHandler
	Session   *SessionHandler
	Blacklist auth.TokenBlacklist
	// WebSocket 为空时不挂载 WEBSOCKET 路由。
	WebSocket http.Handler
	// StaticDir 非空时在 <basePath>/files/ 下提供本地存储的静态文件。
	StaticDir string
}

// HealthResponse 是 /health 的响应体。
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// BasePath 返回规范化后的路由前缀："" 或 "/xxx"。
func BasePath(cfg config.AppConfig) string {
	return config.NormalizeBasePath(cfg.BasePath)
}

// NewRouter 构建 API 服务器的全部路由。
//
// 读取类接口公开；会修改目录或订单状态的接口挂在会话中间件之后。
func NewRouter(deps RouterDeps) *mux.Router {
	cfg := deps.Config
	base := BasePath(cfg.App)

	r := mux.NewRouter()
	r.Use(logging.Middleware)
	r.Use(metrics.Middleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Version:   cfg.App.Version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// 本地存储的静态文件，须在 base 子路由之前注册
	if deps.StaticDir != "" {
		staticPath := base + "/files/"
		r.PathPrefix(staticPath).Handler(http.StripPrefix(staticPath, http.FileServer(http.Dir(deps.StaticDir))))
		logging.Info("提供静态文件服务", logging.String("path", staticPath), logging.String("dir", deps.StaticDir))
	}

	root := r
	if base != "" {
		root = r.PathPrefix(base).Subrouter()
	}

	sessionMW := middleware.SessionMiddleware(cfg.Auth, deps.Blacklist)
	// 登出总是需要令牌，即使关闭了 REQUIRE_SESSION
	strictAuth := cfg.Auth
	strictAuth.RequireSession = true
	strictMW := middleware.SessionMiddleware(strictAuth, deps.Blacklist)

	// 1. 公开路由
	public := root.PathPrefix("/api").Subrouter()
	public.HandleFunc("/files", deps.Files.ListFiles).Methods(http.MethodGet)
	public.HandleFunc("/orders", deps.Orders.CreateOrder).Methods(http.MethodPost)
	public.HandleFunc("/orders", deps.Orders.ListOrders).Methods(http.MethodGet)
	public.HandleFunc("/session", deps.Session.Login).Methods(http.MethodPost)

	// 2. 需要会话的路由
	public.Handle("/files", sessionMW(http.HandlerFunc(deps.Files.PostFiles))).Methods(http.MethodPost)
	public.Handle("/files", sessionMW(http.HandlerFunc(deps.Files.DeleteEntry))).Methods(http.MethodDelete)
	public.Handle("/orders", sessionMW(http.HandlerFunc(deps.Orders.CompleteOrder))).Methods(http.MethodPatch)
	public.Handle("/session", strictMW(http.HandlerFunc(deps.Session.Logout))).Methods(http.MethodDelete)

	// 3. 目录变更推送
	if deps.WebSocket != nil {
		wsPath := cfg.Notifier.WebSocketPath
		if wsPath == "" {
			wsPath = "/ws/catalog"
		}
		root.Handle(wsPath, deps.WebSocket)
	}

	return r
}
