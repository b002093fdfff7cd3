package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bodhion/internal/logger"
)

// Write 把一份渲染好的回测报告落盘到 dir/backtest_<sessionID>.html。
// render 由引擎提供（go-echarts 页面渲染）。
func Write(dir, sessionID string, render func(w io.Writer) error) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "reports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("backtest_%s.html", sessionID))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("render report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	logger.Infof("[report] 报告已生成 %s", path)
	return path, nil
}
