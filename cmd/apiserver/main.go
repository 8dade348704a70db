package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"catalog-admin/internal/auth"
	"catalog-admin/internal/catalogtypes"
	"catalog-admin/internal/config"
	"catalog-admin/internal/handlers/apiserver"
	"catalog-admin/internal/handlers/notifier"
	appKafka "catalog-admin/internal/kafka"
	"catalog-admin/internal/logging"
	appRedis "catalog-admin/internal/redis"
	"catalog-admin/internal/services"
	"catalog-admin/internal/storage"
	"catalog-admin/internal/websocket"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径，为空时查找 ./config/config.yaml")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法加载配置: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logging.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "无法初始化日志: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()
	logging.Info("API 服务器配置加载成功", logging.String("version", cfg.App.Version))

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// 3. 初始化数据库连接
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		logging.Fatal("无法初始化数据库", logging.Err(err))
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		logging.Fatal("数据库表迁移失败", logging.Err(err))
	}

	// 4. 初始化 TokenBlacklist：配置了 Redis 则使用 Redis，否则使用进程内实现
	var blacklist auth.TokenBlacklist
	if cfg.Redis.Addr != "" {
		redisClient, err := appRedis.NewClient(rootCtx, cfg.Redis)
		if err != nil {
			logging.Fatal("无法连接到 Redis", logging.Err(err))
		}
		defer redisClient.Close()
		blacklist = appRedis.NewRedisTokenBlacklist(redisClient)
		logging.Info("成功连接到 Redis", logging.String("addr", cfg.Redis.Addr))
	} else {
		blacklist = auth.NewMemoryTokenBlacklist()
		logging.Warn("未配置 Redis，令牌黑名单仅保存在内存中")
	}

	// 5. 初始化文件存储
	basePath := apiserver.BasePath(cfg.App)
	var store catalogtypes.FileStore
	staticDir := ""
	switch cfg.Storage.Type {
	case "local":
		local, err := storage.NewLocalFileStore(cfg.Storage, basePath+"/files")
		if err != nil {
			logging.Fatal("无法初始化本地存储", logging.Err(err))
		}
		store = local
		staticDir = local.Root()
		logging.Info("本地存储初始化成功", logging.String("root", local.Root()))
	case "s3":
		s3Store, err := storage.NewS3FileStore(rootCtx, cfg.Storage)
		if err != nil {
			logging.Fatal("无法初始化 S3 存储", logging.Err(err))
		}
		store = s3Store
		logging.Info("S3 存储初始化成功", logging.String("bucket", cfg.Storage.S3.BucketName))
	default:
		logging.Fatal("不支持的存储类型", logging.String("type", cfg.Storage.Type))
	}

	// 6. 事件发布：进程内 WebSocket hub，启用时同时写入 Kafka
	hub := websocket.NewHub()
	go hub.Run(rootCtx)

	sinks := []services.EventSink{{Name: "websocket", Publisher: hub}}
	if cfg.Kafka.Enabled {
		producer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
		if err != nil {
			logging.Fatal("无法创建 Kafka 生产者", logging.Err(err))
		}
		defer producer.Close()
		sinks = append(sinks, services.EventSink{
			Name:      "kafka",
			Publisher: appKafka.NewEventPublisher(producer, cfg.Kafka.CatalogEventsTopic),
		})
		logging.Info("Kafka 生产者初始化成功", logging.String("topic", cfg.Kafka.CatalogEventsTopic))
	}
	publisher := services.NewFanoutPublisher(sinks...)

	// 7. 初始化 Services
	fileService := services.NewFileService(store, publisher, cfg.Storage)
	orderService := services.NewOrderService(storage.NewGormOrderRepository(db), publisher)
	sessionService := services.NewSessionService(cfg.Auth, blacklist)

	// 8. 初始化 Handlers 与路由
	router := apiserver.NewRouter(apiserver.RouterDeps{
		Config:    cfg,
		Files:     apiserver.NewFilesHandler(fileService, cfg.Storage),
		Orders:    apiserver.NewOrderHandler(orderService),
		Session:   apiserver.NewSessionHandler(sessionService),
		Blacklist: blacklist,
		WebSocket: notifier.NewWebSocketHandler(hub, blacklist, cfg),
		StaticDir: staticDir,
	})

	// 9. CORS
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}

	// 10. 启动 HTTP 服务器并实现优雅关闭
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      handlers.CORS(corsOptions...)(router),
		ReadTimeout:  cfg.APIServer.ReadTimeout,
		WriteTimeout: cfg.APIServer.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Info("API 服务器启动",
			logging.String("addr", serverAddr),
			logging.String("base_path", basePath),
			logging.String("storage", store.Type()),
			logging.Bool("require_session", cfg.Auth.RequireSession),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("API 服务器启动失败", logging.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info("收到关闭信号，正在关闭 API 服务器...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logging.Error("API 服务器强制关闭", logging.Err(err))
	}
	cancelRoot()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logging.Info("API 服务器已成功关闭")
}
