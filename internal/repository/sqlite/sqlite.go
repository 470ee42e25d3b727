package sqlite

import (
	"time"

	"log/slog"

	"github.com/repchain/repchain/internal/db"
	"github.com/repchain/repchain/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
// Timestamps are stored as unix seconds.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.UserRepo = (*SQLiteRepo)(nil)
var _ repository.JobRepo = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

func now() int64 {
	return time.Now().UTC().Unix()
}

func timePtr(v int64) *time.Time {
	t := time.Unix(v, 0).UTC()
	return &t
}
