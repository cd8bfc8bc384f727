package dbconn

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/outgrowdb/outgrow/pkg/utils"
)

// NewSQLite opens a read-only connection pool to a SQLite database
// file. Opening is lazy, so the ping is what verifies the file exists
// and is a database.
func NewSQLite(path string, config *DBConfig) (*sql.DB, error) {
	params := url.Values{}
	params.Set("mode", "ro")
	params.Set("_busy_timeout", "5000")
	dsn := "file:" + path + "?" + params.Encode()
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConnections)
	db.SetConnMaxLifetime(maxConnLifetime)
	if err := ping(db, config); err != nil {
		utils.CloseAndLog(db)
		return nil, fmt.Errorf("ping sqlite database %s: %w", path, err)
	}
	return db, nil
}

// NewPostgres opens a connection pool to a PostgreSQL server and pings
// it to ensure it is valid.
func NewPostgres(connStr string, config *DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConnections)
	db.SetConnMaxLifetime(maxConnLifetime)
	if err := ping(db, config); err != nil {
		utils.CloseAndLog(db)
		return nil, fmt.Errorf("ping postgres server: %w", err)
	}
	return db, nil
}

// NewMySQL opens a connection pool to a MySQL server and pings it to
// ensure it is valid.
func NewMySQL(dsn string, config *DBConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConnections)
	db.SetConnMaxLifetime(maxConnLifetime)
	if err := ping(db, config); err != nil {
		utils.CloseAndLog(db)
		return nil, fmt.Errorf("ping mysql server: %w", err)
	}
	return db, nil
}

// PostgresConnStr builds a keyword/value connection string for lib/pq.
// The password is only included when non-empty so local trust auth
// keeps working.
func PostgresConnStr(host string, port int, user, password, database, sslMode string, config *DBConfig) string {
	connStr := fmt.Sprintf("host=%s port=%d dbname=%s user=%s sslmode=%s connect_timeout=%d",
		host, port, database, user, sslMode, config.ConnectTimeout)
	if password != "" {
		connStr += " password=" + password
	}
	return connStr
}

// MySQLDSN builds a DSN for the target MySQL server.
func MySQLDSN(host string, port int, user, password, database string, config *DBConfig) string {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", host, port)
	cfg.DBName = database
	cfg.Timeout = time.Duration(config.ConnectTimeout) * time.Second
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}
