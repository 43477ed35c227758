package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/betbot/gokalshi/pkg/logger"
)

// Activity is one durable row of the activity log.
type Activity struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts"`
	Kind    string `json:"kind"`
	Text    string `json:"text"`
	Ticker  string `json:"ticker,omitempty"`
	OrderID string `json:"order_id,omitempty"`
}

// ActivityLog persists notable events (orders, cancels, lifecycle) to sqlite
// so they survive restarts; the in-memory message feed does not.
type ActivityLog struct {
	db *sql.DB
}

func OpenActivityLog(path string) (*ActivityLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open activity db: %w", err)
	}
	db.SetMaxOpenConns(1)
	l := &ActivityLog{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *ActivityLog) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS activity (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts TEXT NOT NULL,
  kind TEXT NOT NULL,
  text TEXT NOT NULL,
  ticker TEXT,
  order_id TEXT
);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_ts ON activity(ts DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate activity db: %w", err)
		}
	}
	return nil
}

func (l *ActivityLog) Close() error {
	return l.db.Close()
}

// Record implements the recorder used by the order gateway. Persistence
// failures are logged, never propagated: a dead activity log must not block
// trading.
func (l *ActivityLog) Record(ctx context.Context, kind, text, ticker, orderID string) {
	_, err := l.db.ExecContext(ctx, `
INSERT INTO activity (ts, kind, text, ticker, order_id)
VALUES (?,?,?,?,?)
`, time.Now().UTC().Format(time.RFC3339Nano), kind, text, ticker, orderID)
	if err != nil {
		logger.Warnf("activity log insert failed: %v", err)
	}
}

// Recent returns up to n rows, newest first.
func (l *ActivityLog) Recent(ctx context.Context, n int) ([]Activity, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := l.db.QueryContext(ctx, `
SELECT id, ts, kind, text, COALESCE(ticker,''), COALESCE(order_id,'')
FROM activity ORDER BY id DESC LIMIT ?
`, n)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.TS, &a.Kind, &a.Text, &a.Ticker, &a.OrderID); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
