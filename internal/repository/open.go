package repository

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// Open returns the KV backend for the configured driver. log may be nil.
func Open(driver, dsn, boltPath string, log *zap.Logger) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		return OpenSQLite(dsn, log)
	case DriverBolt:
		return OpenBolt(boltPath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
