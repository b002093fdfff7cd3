package approval

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"

	"bodhion/internal/config"
	"bodhion/internal/logger"
)

// AgentState 是审批代理子进程的可观测状态。
type AgentState string

const (
	AgentRunning AgentState = "running"
	AgentExited  AgentState = "exited"
	AgentCrashed AgentState = "crashed"
)

// AgentHandle 是被监督子进程的句柄。生命周期与 Run 会话绑定：
// 启动后不 join、不重启；失败只能通过状态或消息通道静默来观测（刻意取舍）。
type AgentHandle struct {
	PID int

	mu       sync.RWMutex
	state    AgentState
	exitCode int
}

// State 返回当前状态。
func (h *AgentHandle) State() AgentState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// ExitCode 返回退出码（仍在运行时为 0）。
func (h *AgentHandle) ExitCode() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.exitCode
}

func (h *AgentHandle) setExit(code int, crashed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exitCode = code
	if crashed {
		h.state = AgentCrashed
	} else {
		h.state = AgentExited
	}
}

// Spawn 在独立进程组中启动审批代理，配置经 JSON 临时文件透传。
// 子进程不被等待；一个后台 goroutine 负责在退出时翻转句柄状态。
func Spawn(cfg *config.ChatbotConfig) (*AgentHandle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("order_interceptor.chatbot is not defined in config")
	}
	command := strings.TrimSpace(cfg.Command)
	if command == "" {
		return nil, fmt.Errorf("order_interceptor.chatbot.command is not defined in config")
	}

	args := append([]string{}, cfg.Args...)
	if len(cfg.Config) > 0 {
		payload, err := json.Marshal(cfg.Config)
		if err != nil {
			return nil, fmt.Errorf("encode chatbot config: %w", err)
		}
		f, err := os.CreateTemp("", "bodhion-chatbot-*.json")
		if err != nil {
			return nil, err
		}
		if _, err := f.Write(payload); err != nil {
			f.Close()
			return nil, err
		}
		f.Close()
		args = append(args, "--config", f.Name())
	}

	cmd := exec.Command(command, args...)
	var logFile *os.File
	if strings.TrimSpace(cfg.LogPath) != "" {
		if dir := filepath.Dir(cfg.LogPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		logFile = f
		cmd.Stdout = f
		cmd.Stderr = f
	}
	// 与主进程故障域隔离：单独进程组，代理崩溃不影响交易会话。
	if runtime.GOOS == "linux" {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, fmt.Errorf("start approval agent %s: %w", command, err)
	}

	handle := &AgentHandle{PID: cmd.Process.Pid, state: AgentRunning}
	logger.Infof("[approval] 审批代理已启动 pid=%d command=%s", handle.PID, command)

	go func() {
		waitErr := cmd.Wait()
		if logFile != nil {
			logFile.Close()
		}
		code := 0
		crashed := false
		if waitErr != nil {
			crashed = true
			code = 1
			var exitErr *exec.ExitError
			if errors.As(waitErr, &exitErr) {
				code = exitErr.ExitCode()
			}
		}
		handle.setExit(code, crashed)
		logger.Warnf("[approval] 审批代理退出 pid=%d code=%d state=%s", handle.PID, code, handle.State())
	}()

	return handle, nil
}
