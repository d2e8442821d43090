package audit

import (
	"fmt"
	stdlog "log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/mnemograph/mnemograph-backend/internal/platform/envutil"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
)

// NewPostgres opens the audit database from POSTGRES_* variables and runs
// the migrations. An empty POSTGRES_HOST returns (nil, nil): auditing is
// optional and the caller treats a nil DB as disabled.
func NewPostgres(log *logger.Logger) (*gorm.DB, error) {
	if log == nil {
		return nil, fmt.Errorf("audit: logger required")
	}

	host := envutil.Str("POSTGRES_HOST", "")
	if host == "" {
		return nil, nil
	}
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		envutil.Str("POSTGRES_USER", "postgres"),
		envutil.Str("POSTGRES_PASSWORD", ""),
		host,
		envutil.Str("POSTGRES_PORT", "5432"),
		envutil.Str("POSTGRES_NAME", "mnemograph"),
		envutil.Str("POSTGRES_SSLMODE", "disable"),
	)

	gormLog := gormLogger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("audit: connect to postgres: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	log.Info("audit database connected", "host", host)
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&DocumentRecord{},
		&BatchJobRun{},
		&ProposalRecord{},
	); err != nil {
		return fmt.Errorf("audit: migrate: %w", err)
	}
	return nil
}
