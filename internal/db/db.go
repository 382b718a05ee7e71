package db

import (
	"fmt"
	"net/url"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vietanh2810/raffle-api/internal/config"
	"github.com/vietanh2810/raffle-api/internal/repository/dao"
)

// Open connects to the configured driver. A non-empty databaseURL takes precedence over the
// per-driver settings and is always a PostgreSQL URL.
func Open(conf *config.AppConfig, databaseURL string) (*gorm.DB, error) {
	if databaseURL != "" {
		return OpenPostgresWithURL(databaseURL)
	}

	switch conf.Database.Driver {
	case config.DriverMySQL:
		return OpenMySQL(conf.MySQL)
	default:
		return OpenPostgres(conf.Postgres)
	}
}

func OpenPostgres(conf *config.PostgresConfig) (*gorm.DB, error) {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(conf.User, conf.Password),
		Host:     conf.Host + ":" + conf.Port,
		Path:     conf.DB,
		RawQuery: "sslmode=" + conf.SSLMode,
	}

	return OpenPostgresWithURL(u.String())
}

func OpenPostgresWithURL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open -> %w", err)
	}

	return setup(db)
}

func OpenMySQL(conf *config.MySQLConfig) (*gorm.DB, error) {
	dsn := mysqldriver.NewConfig()
	dsn.User = conf.User
	dsn.Passwd = conf.Password
	dsn.Net = "tcp"
	dsn.Addr = conf.Host + ":" + conf.Port
	dsn.DBName = conf.DB
	dsn.ParseTime = true
	dsn.Loc = time.UTC

	db, err := gorm.Open(mysql.Open(dsn.FormatDSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open -> %w", err)
	}

	return setup(db)
}

func setup(db *gorm.DB) (*gorm.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB -> %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err = dao.InitTables(db); err != nil {
		return nil, fmt.Errorf("dao.InitTables -> %w", err)
	}

	return db, nil
}
