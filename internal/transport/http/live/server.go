package livehttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"bodhion/internal/logger"
	"bodhion/internal/store/runs"

	"github.com/gin-gonic/gin"
)

// Status 是实盘会话的对外状态快照。
type Status struct {
	SessionID      string    `json:"session_id"`
	Mode           string    `json:"mode"`
	Strategy       string    `json:"strategy"`
	Feeds          []string  `json:"feeds"`
	InterceptState string    `json:"intercept_state"`
	AgentState     string    `json:"agent_state"`
	AgentPID       int       `json:"agent_pid,omitempty"`
	StartedAt      time.Time `json:"started_at"`
}

// JournalReader 提供审计流水的只读查询。
type JournalReader interface {
	Recent(limit int) ([]runs.AuditRow, error)
}

// Server 提供实盘会话的只读状态接口。
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig 描述状态服务的依赖。Journal 可为空（拦截未启用时）。
type ServerConfig struct {
	Addr    string
	Status  func() Status
	Journal JournalReader
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Status == nil {
		return nil, errors.New("live http server requires a status source")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9991"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := router.Group("/api")
	api.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, cfg.Status())
	})
	api.GET("/journal", func(c *gin.Context) {
		if cfg.Journal == nil {
			c.JSON(http.StatusOK, gin.H{"rows": []runs.AuditRow{}})
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		rows, err := cfg.Journal.Recent(limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if rows == nil {
			rows = []runs.AuditRow{}
		}
		c.JSON(http.StatusOK, gin.H{"rows": rows})
	})

	return &Server{addr: cfg.Addr, router: router}, nil
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("[live] 状态服务已启动 addr=%s", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		c.Next()
		logger.Debugf("[live] %s %s -> %d (%s)", method, path, c.Writer.Status(), time.Since(start))
	}
}
