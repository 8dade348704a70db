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

	"github.com/gorilla/mux"

	"catalog-admin/internal/auth"
	"catalog-admin/internal/config"
	"catalog-admin/internal/handlers/notifier"
	appKafka "catalog-admin/internal/kafka"
	kafkahandlers "catalog-admin/internal/kafka/handlers"
	"catalog-admin/internal/logging"
	"catalog-admin/internal/metrics"
	appRedis "catalog-admin/internal/redis"
	"catalog-admin/internal/websocket"
)

// notifier 独立部署时从 Kafka 读取目录变更事件并推送给 WebSocket 订阅者。
// API 服务器自身也挂载了同样的 WebSocket 路由，单实例部署不需要本进程。
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
	logging.Info("Notifier 配置加载成功", logging.String("version", cfg.App.Version))

	if !cfg.Kafka.Enabled {
		logging.Fatal("Notifier 需要启用 Kafka (KAFKA.ENABLED=true)")
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// 3. TokenBlacklist：订阅时携带的令牌需要校验是否已登出
	var blacklist auth.TokenBlacklist
	if cfg.Redis.Addr != "" {
		redisClient, err := appRedis.NewClient(rootCtx, cfg.Redis)
		if err != nil {
			logging.Fatal("无法连接到 Redis", logging.Err(err))
		}
		defer redisClient.Close()
		blacklist = appRedis.NewRedisTokenBlacklist(redisClient)
	} else {
		blacklist = auth.NewMemoryTokenBlacklist()
		logging.Warn("未配置 Redis，无法感知 API 服务器上的登出")
	}

	// 4. 初始化 WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run(rootCtx)
	logging.Info("WebSocket Hub 已启动")

	// 5. 初始化 Kafka 消费者
	consumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		logging.Fatal("无法创建 Kafka 消费者", logging.Err(err))
	}
	defer consumer.Close()

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		topic := cfg.Kafka.CatalogEventsTopic
		logging.Info("Kafka 消费者启动",
			logging.String("topic", topic),
			logging.String("group", cfg.Kafka.ConsumerGroup),
		)
		logic := kafkahandlers.NewCatalogEventConsumerLogic(hub)
		if err := consumer.Consume(rootCtx, []string{topic}, cfg.Kafka.ConsumerGroup, logic.HandleCatalogEvent); err != nil {
			logging.Error("Kafka 消费者错误", logging.Err(err))
		}
		logging.Info("Kafka 消费者已停止")
	}()

	// 6. 路由
	wsPath := cfg.Notifier.WebSocketPath
	if wsPath == "" {
		wsPath = "/ws/catalog"
	}
	r := mux.NewRouter()
	r.Use(logging.Middleware, metrics.Middleware)
	r.Handle(wsPath, notifier.NewWebSocketHandler(hub, blacklist, cfg))
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","clients":%d}`, hub.ClientCount())
	}).Methods(http.MethodGet)

	// 7. 启动 HTTP 服务器
	serverAddr := fmt.Sprintf("%s:%s", cfg.Notifier.Host, cfg.Notifier.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info("Notifier 启动", logging.String("addr", serverAddr), logging.String("websocket_path", wsPath))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Notifier 启动失败", logging.Err(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info("Notifier 准备关闭...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logging.Error("Notifier 关闭失败", logging.Err(err))
	}

	cancelRoot()
	select {
	case <-consumerDone:
	case <-ctxShutdown.Done():
		logging.Warn("等待 Kafka 消费者停止超时")
	}
	logging.Info("Notifier 已优雅关闭")
}
