package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"bodhion/internal/app"
	"bodhion/internal/config"
	"bodhion/internal/logger"
	_ "bodhion/internal/strategy/all"
)

const timeLayout = "2006-01-02T15:04:05"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	mode := os.Args[1]
	switch mode {
	case "backtest", "optimize", "run":
	default:
		usage()
		os.Exit(2)
	}

	fs := flag.NewFlagSet(mode, flag.ExitOnError)
	userdir := fs.String("userdir", ".", "工作目录（配置读取自 <userdir>/config.json）")
	strategyName := fs.String("strategy", "", "策略名（必填）")
	var start, end *string
	now := time.Now().UTC()
	start = fs.String("start", now.Add(-600*time.Minute).Format(timeLayout), "回测起点")
	if mode != "run" {
		end = fs.String("end", now.Add(-time.Minute).Format(timeLayout), "回测终点")
	}
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}
	if strings.TrimSpace(*strategyName) == "" {
		log.Fatalf("--strategy 必填")
	}

	cfgPath := filepath.Join(*userdir, "config.json")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("初始化日志文件失败: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("✓ 配置加载成功（%s）", cfgPath)

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "backtest":
		startAt, endAt := parseWindow(*start, *end)
		err = application.Backtest(ctx, *strategyName, startAt, endAt)
	case "optimize":
		startAt, endAt := parseWindow(*start, *end)
		err = application.Optimize(ctx, *strategyName, startAt, endAt)
	case "run":
		err = application.Run(ctx, *strategyName)
	}
	if err != nil {
		log.Fatalf("运行失败: %v", err)
	}
}

func parseWindow(startRaw, endRaw string) (time.Time, time.Time) {
	startAt, err := time.Parse(timeLayout, startRaw)
	if err != nil {
		log.Fatalf("--start 格式非法（期望 %s）: %v", timeLayout, err)
	}
	endAt, err := time.Parse(timeLayout, endRaw)
	if err != nil {
		log.Fatalf("--end 格式非法（期望 %s）: %v", timeLayout, err)
	}
	if !endAt.After(startAt) {
		log.Fatalf("--end 必须晚于 --start")
	}
	return startAt.UTC(), endAt.UTC()
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "用法: bodhion <backtest|optimize|run> [--userdir DIR] --strategy NAME [--start T] [--end T]")
}
