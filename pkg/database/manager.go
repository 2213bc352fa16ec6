package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-arcade/invitekit/pkg/log"
	"github.com/go-arcade/invitekit/pkg/trace/inject"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type Manager interface {
	// DB returns the relational connection
	DB() *gorm.DB

	// Driver returns the configured driver name
	Driver() string

	// Close closes the connection pool
	Close() error
}

type managerImpl struct {
	db     *gorm.DB
	driver string
}

func (m *managerImpl) DB() *gorm.DB {
	return m.db
}

func (m *managerImpl) Driver() string {
	return m.driver
}

func (m *managerImpl) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", m.driver, err)
	}
	return nil
}

// NewManager opens a gorm connection for the sqlite or mysql driver.
func NewManager(cfg Database) (Manager, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	logConfig := gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gormlogger.Warn,
		Colorful:                  false,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
	}
	var gormLogger gormlogger.Interface = NewGormLoggerAdapter(logConfig, gormlogger.Warn)
	if cfg.OutPut {
		logConfig.LogLevel = gormlogger.Info
		gormLogger = NewGormLoggerAdapter(logConfig, gormlogger.Info)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dataTablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", cfg.Driver, err)
	}
	if err := db.Use(inject.NewGormPlugin(cfg.Driver, cfg.OutPut)); err != nil {
		return nil, fmt.Errorf("failed to register trace plugin: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.Driver == DriverSQLite {
		// sqlite serialises writers; a single connection avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(GetConnMaxLifetime(cfg.MaxLifetime))
		sqlDB.SetConnMaxIdleTime(GetConnMaxIdleTime(cfg.MaxIdleTime))
	}

	log.Infow("database connected", "driver", cfg.Driver)
	return &managerImpl{db: db, driver: cfg.Driver}, nil
}

func dialectorFor(cfg Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSQLite:
		if cfg.SQLite.Path != ":memory:" && cfg.SQLite.Path != "file::memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		return sqlite.Open(cfg.SQLite.Path), nil
	case DriverMySQL:
		return mysql.Open(buildMySQLDSN(cfg.MySQL)), nil
	default:
		return nil, fmt.Errorf("driver %q is not a gorm driver", cfg.Driver)
	}
}
