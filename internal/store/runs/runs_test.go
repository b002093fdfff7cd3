package runs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bodhion/internal/approval"
	"bodhion/internal/engine"
	"bodhion/internal/intercept"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveAndListRuns(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	result := &engine.Result{
		StartCash:  1000,
		FinalValue: 1200,
		ReturnPct:  20,
		Orders: []engine.OrderRecord{{
			Time:   started.Add(time.Hour),
			Feed:   "btc",
			Symbol: "BTCUSDT",
			Side:   "buy",
			Amount: decimal.NewFromInt(1),
			Price:  decimal.NewFromInt(100),
		}},
		FinishedAt: started.Add(2 * time.Hour),
	}
	require.NoError(t, store.SaveRun(context.Background(), "sess-1", "backtest", "sma", started, result))

	records, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "sess-1", records[0].SessionID)
	assert.Equal(t, "sma", records[0].Strategy)
	assert.InDelta(t, 20.0, records[0].ReturnPct, 1e-9)
	assert.Equal(t, 1, records[0].OrderCount)
}

func TestJournalRecordAndRecent(t *testing.T) {
	journal, err := NewJournal(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer journal.Close()

	require.NoError(t, journal.RecordOrder(intercept.OrderMessage{
		Symbol:    "BTCUSDT",
		OrderType: "market",
		Side:      "buy",
		Amount:    decimal.NewFromInt(2),
	}))
	require.NoError(t, journal.RecordDecision(approval.Decision{
		Symbol:   "BTCUSDT",
		Approved: true,
		Operator: "ops",
	}))

	rows, err := journal.Recent(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	kinds := []string{rows[0].Kind, rows[1].Kind}
	assert.Contains(t, kinds, "order")
	assert.Contains(t, kinds, "decision")
	assert.Equal(t, "BTCUSDT", rows[0].Symbol)
}
