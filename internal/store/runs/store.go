package runs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bodhion/internal/engine"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store 持久化回测运行与模拟成交（Gorm + SQLite）。
type Store struct {
	db *gorm.DB
}

type backtestRunModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	SessionID     string         `gorm:"column:session_id;uniqueIndex"`
	Mode          string         `gorm:"column:mode"`
	Strategy      string         `gorm:"column:strategy"`
	StartCash     float64        `gorm:"column:start_cash"`
	FinalValue    float64        `gorm:"column:final_value"`
	ReturnPct     float64        `gorm:"column:return_pct"`
	OrderCount    int            `gorm:"column:order_count"`
	InstancesJSON datatypes.JSON `gorm:"column:instances_json"`
	StartedAtUnix int64          `gorm:"column:started_at"`
	FinishedUnix  int64          `gorm:"column:finished_at"`
}

func (backtestRunModel) TableName() string { return "backtest_runs" }

type simOrderModel struct {
	ID        int64   `gorm:"column:id;primaryKey"`
	SessionID string  `gorm:"column:session_id;index"`
	TS        int64   `gorm:"column:ts"`
	Feed      string  `gorm:"column:feed"`
	Symbol    string  `gorm:"column:symbol;index"`
	Side      string  `gorm:"column:side"`
	Amount    string  `gorm:"column:amount"`
	Price     string  `gorm:"column:price"`
	Fee       string  `gorm:"column:fee"`
	Notional  float64 `gorm:"column:notional"`
}

func (simOrderModel) TableName() string { return "sim_orders" }

// RunRecord 是一次已持久化运行的读取视图。
type RunRecord struct {
	SessionID  string    `json:"session_id"`
	Mode       string    `json:"mode"`
	Strategy   string    `json:"strategy"`
	StartCash  float64   `json:"start_cash"`
	FinalValue float64   `json:"final_value"`
	ReturnPct  float64   `json:"return_pct"`
	OrderCount int       `json:"order_count"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("runs store path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&backtestRunModel{}, &simOrderModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL：留一点并行度给 HTTP 只读查询，同时压低锁竞争。
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRun 落库一次引擎运行及其全部模拟成交。
func (s *Store) SaveRun(ctx context.Context, sessionID, mode, strategyName string, startedAt time.Time, result *engine.Result) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("runs store not initialized")
	}
	if result == nil {
		return fmt.Errorf("nil result")
	}
	var instances datatypes.JSON
	if len(result.Instances) > 0 {
		payload, err := json.Marshal(result.Instances)
		if err != nil {
			return fmt.Errorf("encode instances: %w", err)
		}
		instances = datatypes.JSON(payload)
	}
	run := backtestRunModel{
		SessionID:     sessionID,
		Mode:          mode,
		Strategy:      strategyName,
		StartCash:     result.StartCash,
		FinalValue:    result.FinalValue,
		ReturnPct:     result.ReturnPct,
		OrderCount:    len(result.Orders),
		InstancesJSON: instances,
		StartedAtUnix: startedAt.Unix(),
		FinishedUnix:  result.FinishedAt.Unix(),
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		if len(result.Orders) == 0 {
			return nil
		}
		models := make([]simOrderModel, 0, len(result.Orders))
		for _, order := range result.Orders {
			models = append(models, simOrderModel{
				SessionID: sessionID,
				TS:        order.Time.UnixMilli(),
				Feed:      order.Feed,
				Symbol:    strings.ToUpper(strings.TrimSpace(order.Symbol)),
				Side:      order.Side,
				Amount:    order.Amount.String(),
				Price:     order.Price.String(),
				Fee:       order.Fee.String(),
				Notional:  order.Amount.Mul(order.Price).InexactFloat64(),
			})
		}
		return tx.Create(&models).Error
	})
}

// ListRuns 按完成时间倒序返回最近的运行。
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("runs store not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var models []backtestRunModel
	if err := s.db.WithContext(ctx).
		Order("finished_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]RunRecord, 0, len(models))
	for _, m := range models {
		out = append(out, RunRecord{
			SessionID:  m.SessionID,
			Mode:       m.Mode,
			Strategy:   m.Strategy,
			StartCash:  m.StartCash,
			FinalValue: m.FinalValue,
			ReturnPct:  m.ReturnPct,
			OrderCount: m.OrderCount,
			StartedAt:  time.Unix(m.StartedAtUnix, 0).UTC(),
			FinishedAt: time.Unix(m.FinishedUnix, 0).UTC(),
		})
	}
	return out, nil
}
