package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *ActivityLog {
	t.Helper()
	l, err := OpenActivityLog(filepath.Join(t.TempDir(), "activity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestActivityRecordAndRecent(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	l.Record(ctx, "order", "buy 2 yes EVT-25-A @ 33¢", "EVT-25-A", "ord-1")
	l.Record(ctx, "cancel", "canceled order ord-1", "EVT-25-A", "ord-1")
	l.Record(ctx, "lifecycle", "poller started", "", "")

	rows, err := l.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "lifecycle", rows[0].Kind)
	assert.Equal(t, "order", rows[2].Kind)
	assert.Equal(t, "ord-1", rows[2].OrderID)
	assert.NotEmpty(t, rows[0].TS)
}

func TestActivityRecentLimit(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		l.Record(ctx, "order", "x", "", "")
	}
	rows, err := l.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestActivityReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.db")
	l, err := OpenActivityLog(path)
	require.NoError(t, err)
	l.Record(context.Background(), "order", "persisted", "", "")
	require.NoError(t, l.Close())

	l2, err := OpenActivityLog(path)
	require.NoError(t, err)
	defer l2.Close()
	rows, err := l2.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "persisted", rows[0].Text)
}
