package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"catalog-admin/internal/config"
	"catalog-admin/internal/logging"
	"catalog-admin/internal/models"
)

// InitDB initializes the database connection using the provided configuration.
// "postgres" connects to a server; "sqlite" opens (and creates) a local file,
// or an in-memory database when SQLitePath is ":memory:".
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Type {
	case "postgres":
		var dsnParts []string
		dsnParts = append(dsnParts, fmt.Sprintf("host=%s", cfg.Host))
		dsnParts = append(dsnParts, fmt.Sprintf("port=%d", cfg.Port))
		dsnParts = append(dsnParts, fmt.Sprintf("user=%s", cfg.User))
		dsnParts = append(dsnParts, fmt.Sprintf("dbname=%s", cfg.DBName))

		if cfg.Password != "" {
			dsnParts = append(dsnParts, fmt.Sprintf("password=%s", cfg.Password))
		}

		dsnParts = append(dsnParts, fmt.Sprintf("sslmode=%s", cfg.SSLMode))

		logging.Info("连接 PostgreSQL",
			logging.String("host", cfg.Host),
			logging.Int("port", cfg.Port),
			logging.String("dbname", cfg.DBName),
		)
		dialector = postgres.Open(strings.Join(dsnParts, " "))
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = ":memory:"
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("创建 SQLite 目录失败: %w", err)
			}
		}
		logging.Info("打开 SQLite 数据库", logging.String("path", path))
		dialector = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	// gorm 日志通过 zap 输出
	newLogger := logger.New(
		logging.StdLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
		// 统一以 UTC 存储时间，按日期过滤订单依赖这一点
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// AutoMigrateTables runs GORM's auto-migration feature for all defined models.
func AutoMigrateTables(db *gorm.DB) error {
	logging.Info("开始数据库表结构迁移...")
	err := db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		logging.Error("数据库迁移失败", logging.Err(err))
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	logging.Info("数据库迁移完成。")
	return nil
}
