package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/codeact/internal/api/middleware"
	"github.com/GriffinCanCode/codeact/internal/logging"
	"github.com/GriffinCanCode/codeact/internal/sandbox"
	"github.com/GriffinCanCode/codeact/internal/shared/types"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Executor runs scripts; *sandbox.Runner implements it
type Executor interface {
	Execute(ctx context.Context, req sandbox.ExecutionRequest) *sandbox.Result
}

// Handlers contains all HTTP handlers
type Handlers struct {
	runner     Executor
	caps       sandbox.Capabilities
	maxTimeout time.Duration
	logger     *logging.Logger
}

// NewHandlers creates a handler set that runs every script with caps.
// Requested timeouts above maxTimeout are lowered to it; 0 disables the cap.
func NewHandlers(runner Executor, caps sandbox.Capabilities, maxTimeout time.Duration, logger *logging.Logger) *Handlers {
	return &Handlers{
		runner:     runner,
		caps:       caps,
		maxTimeout: maxTimeout,
		logger:     logger.OrNop(),
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "codeact",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	names := []string{}
	if h.caps != nil {
		for _, fn := range h.caps.HostFunctions() {
			names = append(names, fn.Name)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"capabilities": names,
	})
}

// Execute runs one script
func (h *Handlers) Execute(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Script) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": sandbox.ErrEmptyScript.Error()})
		return
	}

	timeout := time.Duration(req.TimeoutMs) * time.Millisecond
	if h.maxTimeout > 0 && timeout > h.maxTimeout {
		timeout = h.maxTimeout
	}

	res := h.runner.Execute(c.Request.Context(), sandbox.ExecutionRequest{
		Script:       req.Script,
		Timeout:      timeout,
		Capabilities: h.caps,
	})

	h.logger.Info("script executed",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("execution", res.ID),
		zap.Bool("success", res.Success),
		zap.Bool("timed_out", res.TimedOut),
		zap.Int64("duration_ms", res.DurationMs))

	c.JSON(http.StatusOK, res)
}
