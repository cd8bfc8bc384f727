// Package dbconn contains a series of database-related utility functions.
package dbconn

import (
	"context"
	"database/sql"
	"time"
)

const (
	maxConnLifetime = time.Minute * 3
)

type DBConfig struct {
	MaxOpenConnections int
	ConnectTimeout     int // seconds, used for the initial ping and the target connect timeout
}

func NewDBConfig() *DBConfig {
	return &DBConfig{
		MaxOpenConnections: 2, // at most one reader and one writer at a time
		ConnectTimeout:     5,
	}
}

// ping verifies a freshly opened pool within the configured timeout.
func ping(db *sql.DB, config *DBConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(config.ConnectTimeout)*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}
