// Package storage picks the document store implementation at startup.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/storage/memory"
	mysqlstore "hotel_booking/internal/storage/mysql"
)

const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Open returns the store named by driver and a function releasing it.
func Open(ctx context.Context, driver, dsn string) (domain.Store, func() error, error) {
	switch driver {
	case DriverMemory:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return memory.New(domain.RealClock()), func() error { return nil }, nil
	case DriverMySQL:
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("sql.Open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db.Ping: %w", err)
		}
		log.Info().Msg("database connection ok")
		return mysqlstore.New(db), db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", driver)
}
