package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/evidark-org/evidark/internal/entity"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitGorm(cfg *AppConfig) *gorm.DB {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DBSQLitePath)
	default:
		dialector = postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        cfg.DBConnectionString(),
		})
	}

	db, err := OpenGorm(dialector)
	if err != nil {
		slog.Error("Failed opening database connection", "error", err, "driver", cfg.DBDriver)
		os.Exit(1)
	}

	if cfg.DBMigrate {
		if err := Migrate(db); err != nil {
			slog.Error("Failed creating schema resources", "error", err)
			os.Exit(1)
		}
		slog.Info("Database schema migrated successfully")
	} else {
		slog.Info("Database migration skipped (DB_MIGRATE=false)")
	}

	slog.Info("Database connected successfully", "driver", cfg.DBDriver)
	return db
}

func OpenGorm(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Chat{},
		&entity.ChatParticipant{},
		&entity.Message{},
		&entity.MessageAttachment{},
		&entity.MessageReaction{},
		&entity.MessageRead{},
	)
}
