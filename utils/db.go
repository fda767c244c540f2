package utils

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"land-registry-service/config"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
)

func mysqlAddress(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// DBConnect opens the MySQL pool and waits for the database to become
// reachable, backing off between pings.
func DBConnect(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", mysqlAddress(cfg))
	if err != nil {
		log.Errorf("Failed to open the database: %v", err)
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	deadline := time.Now().Add(60 * time.Second)
	waitInterval := time.Second
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		pingErr := db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("database ping timeout: %w", pingErr)
		}
		log.Warnf("Database connection failed, retrying in %v: %v", waitInterval, pingErr)
		time.Sleep(waitInterval)
		waitInterval *= 2
		if waitInterval > 30*time.Second {
			waitInterval = 30 * time.Second
		}
	}

	log.Info("Established db connection.")
	return db, nil
}

// LogResult logs the outcome of a write, warning when a statement that was
// expected to touch exactly one row did not.
func LogResult(msgPrefix string, r sql.Result, e error, expectOne bool) {
	if e != nil {
		log.Errorf("%s: query failed: %v", msgPrefix, e)
		return
	}
	rows, err := r.RowsAffected()
	if err != nil {
		log.Errorf("%s: failed to get status of db op: %v", msgPrefix, err)
		return
	}
	if expectOne && rows != 1 {
		log.Warnf("%s: expected to affect 1 row, affected %d", msgPrefix, rows)
	}
}
