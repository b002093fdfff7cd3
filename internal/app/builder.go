package app

import (
	"context"
	"fmt"
	"path/filepath"

	"bodhion/internal/bot"
	"bodhion/internal/config"
	"bodhion/internal/store/runs"
)

// AppBuilder 负责把配置展开成可运行的 App。
type AppBuilder struct {
	cfg *config.Config
}

func NewAppBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if b == nil || b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	runsStore, err := runs.NewStore(cfg.Runs.Path)
	if err != nil {
		return nil, fmt.Errorf("open runs store: %w", err)
	}
	journal, err := runs.NewJournal(journalPath(cfg.Runs.Path))
	if err != nil {
		runsStore.Close()
		return nil, fmt.Errorf("open audit journal: %w", err)
	}

	orchestrator, err := bot.New(cfg, bot.Options{
		Runs:    runsStore,
		Journal: journal,
	})
	if err != nil {
		journal.Close()
		runsStore.Close()
		return nil, err
	}

	return &App{
		cfg:     cfg,
		bot:     orchestrator,
		runs:    runsStore,
		journal: journal,
		Summary: newStartupSummary(cfg),
	}, nil
}

// journalPath 把审计流水放在 runs 库旁边，分库避免 ORM 与流水写锁互扰。
func journalPath(runsPath string) string {
	return filepath.Join(filepath.Dir(runsPath), "journal.db")
}
