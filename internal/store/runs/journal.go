package runs

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bodhion/internal/approval"
	"bodhion/internal/intercept"

	_ "modernc.org/sqlite"
)

// Journal 是订单广播与操作员裁决的审计日志（database/sql + SQLite）。
// 与 Store 分库分驱动：审计行是追加型流水，不走 ORM。
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// AuditRow 是一条审计流水，Detail 为原始 JSON 载荷。
type AuditRow struct {
	ID     int64  `json:"id"`
	TS     int64  `json:"ts"`
	Kind   string `json:"kind"`
	Symbol string `json:"symbol"`
	Detail string `json:"detail"`
}

const (
	auditKindOrder    = "order"
	auditKindDecision = "decision"
)

func NewJournal(path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("journal path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureJournalSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func ensureJournalSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER NOT NULL,
		kind TEXT NOT NULL,
		symbol TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '{}'
	)`)
	if err != nil {
		return fmt.Errorf("ensure audit_log schema: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_log_ts ON audit_log(ts)`)
	return err
}

func (j *Journal) append(kind, symbol string, detail any) error {
	if j == nil || j.db == nil {
		return fmt.Errorf("journal not initialized")
	}
	payload, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("encode audit detail: %w", err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.db.Exec(
		`INSERT INTO audit_log (ts, kind, symbol, detail) VALUES (?, ?, ?, ?)`,
		time.Now().UnixMilli(), kind, strings.ToUpper(strings.TrimSpace(symbol)), string(payload),
	)
	return err
}

// RecordOrder 实现 intercept.Journal。
func (j *Journal) RecordOrder(msg intercept.OrderMessage) error {
	return j.append(auditKindOrder, msg.Symbol, msg)
}

// RecordDecision 实现 approval.DecisionJournal。
func (j *Journal) RecordDecision(d approval.Decision) error {
	return j.append(auditKindDecision, d.Symbol, d)
}

// Recent 按时间倒序返回最近的审计行。
func (j *Journal) Recent(limit int) ([]AuditRow, error) {
	if j == nil || j.db == nil {
		return nil, fmt.Errorf("journal not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := j.db.Query(
		`SELECT id, ts, kind, symbol, detail FROM audit_log ORDER BY ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditRow
	for rows.Next() {
		var row AuditRow
		if err := rows.Scan(&row.ID, &row.TS, &row.Kind, &row.Symbol, &row.Detail); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

var (
	_ intercept.Journal        = (*Journal)(nil)
	_ approval.DecisionJournal = (*Journal)(nil)
)
