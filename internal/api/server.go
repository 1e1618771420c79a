// Package api handles HTTP and WebSocket API endpoints
package api

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/alpiant/pos-kasir/internal/command"
	"github.com/alpiant/pos-kasir/internal/escpos"
	"github.com/alpiant/pos-kasir/internal/job"
	"github.com/alpiant/pos-kasir/internal/preview"
	"github.com/alpiant/pos-kasir/internal/printer"
	"github.com/alpiant/pos-kasir/pkg/receiptformat"
)

// Service is the print service behind the API.
type Service interface {
	command.Service
	Subscribe() (<-chan job.Event, func())
}

// Server is the API server
type Server struct {
	router   *gin.Engine
	service  Service
	ports    command.PortStore
	executor *command.Executor
	upgrader websocket.Upgrader
	logger   *zap.Logger

	clientsMu sync.RWMutex
	clients   map[*wsClient]struct{}
	stopOnce  sync.Once
	stop      func()
	done      chan struct{}
}

// Options configures the API server.
type Options struct {
	Logger *zap.Logger
	// AllowedOrigins lists the browser origins (scheme://host[:port]) that
	// may call the API and open WebSockets. "*" allows every origin.
	// Requests without an Origin header are always accepted.
	AllowedOrigins []string
}

// NewServer creates a new API server and starts relaying job events to
// WebSocket clients. Close stops the relay.
func NewServer(service Service, ports command.PortStore, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := newOriginPolicy(opts.AllowedOrigins)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), originMiddleware(origins, logger))

	server := &Server{
		router:   router,
		service:  service,
		ports:    ports,
		executor: command.NewExecutor(service, ports),
		upgrader: websocket.Upgrader{CheckOrigin: origins.allows},
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
		done:    make(chan struct{}),
	}

	events, stop := service.Subscribe()
	server.stop = stop
	go server.relay(events)

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.GET("/printers", s.handleGetPrinters)
	s.router.GET("/settings/printer", s.handleGetPrinterPort)
	s.router.POST("/settings/printer", s.handleSetPrinterPort)

	s.router.POST("/print/test", s.handlePrintTest)
	s.router.POST("/print/receipt", s.handlePrintReceipt)
	s.router.POST("/print/labels", s.handlePrintLabels)
	s.router.POST("/labels/preview", s.handleLabelPreview)

	s.router.GET("/jobs", s.handleGetJobs)
	s.router.GET("/job/:id", s.handleGetJob)

	s.router.POST("/command", s.handleCommand)

	s.router.GET("/ws", s.handleWebSocket)
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops the job event relay and disconnects WebSocket clients.
func (s *Server) Close() {
	s.stopOnce.Do(func() {
		s.stop()
		<-s.done
	})
}

// handleGetPrinters returns the destinations discovery found
func (s *Server) handleGetPrinters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"printers": s.service.ListDestinations(c.Request.Context()),
	})
}

func (s *Server) handleGetPrinterPort(c *gin.Context) {
	port, err := s.ports.PrinterPort()
	if err != nil {
		s.fail(c, nil, err)
		return
	}

	resp := gin.H{"path": port}
	if target, err := printer.Route(port); err == nil {
		resp["transport"] = target.Kind
		resp["address"] = target.Address
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSetPrinterPort(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	path := strings.TrimSpace(req.Path)
	target, err := command.CheckPort(path)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err))
		return
	}
	if err := s.ports.SetPrinterPort(path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"path":      path,
		"transport": target.Kind,
	})
}

func (s *Server) handlePrintTest(c *gin.Context) {
	j, err := s.service.PrintTest(c.Request.Context())
	s.respondJob(c, j, err)
}

func (s *Server) handlePrintReceipt(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r, err := receiptformat.ParseReceipt(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receipt: " + err.Error()})
		return
	}

	j, err := s.service.PrintReceipt(c.Request.Context(), r.Transaction, r.Items)
	s.respondJob(c, j, err)
}

func (s *Server) handlePrintLabels(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sheet, err := receiptformat.ParseLabels(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid labels: " + err.Error()})
		return
	}

	j, err := s.service.PrintLabels(c.Request.Context(), sheet.Labels)
	s.respondJob(c, j, err)
}

// handleLabelPreview renders one label as PNG
func (s *Server) handleLabelPreview(c *gin.Context) {
	var req struct {
		Label escpos.Label `json:"label"`
		Scale int          `json:"scale"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := receiptformat.ValidateLabels(&receiptformat.LabelSheet{Labels: []escpos.Label{req.Label}}); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid label: " + err.Error()})
		return
	}

	img, err := preview.Render(req.Label, req.Scale)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := preview.EncodePNG(&buf, img); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// handleGetJobs returns all print jobs
func (s *Server) handleGetJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": s.service.Jobs()})
}

// handleGetJob returns a specific print job
func (s *Server) handleGetJob(c *gin.Context) {
	j, ok := s.service.Job(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, j)
}

// handleCommand handles command execution requests
func (s *Server) handleCommand(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "command is required"})
		return
	}

	result := s.executor.Execute(c.Request.Context(), req.Command)

	if !result.Success {
		resp := gin.H{
			"success": false,
			"error":   result.Error,
		}
		status := http.StatusBadRequest
		if result.Kind != "" {
			resp["kind"] = result.Kind
			status = statusForKind(result.Kind)
		}
		c.JSON(status, resp)
		return
	}

	response := gin.H{"success": true}
	if result.Message != "" {
		response["message"] = result.Message
	}
	for k, v := range result.Data {
		response[k] = v
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) respondJob(c *gin.Context, j job.Job, err error) {
	if err != nil {
		s.fail(c, &j, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job_id":  j.ID,
		"job":     j,
	})
}

// fail writes err as {"error", "kind"}. j carries the failed job when one
// was recorded.
func (s *Server) fail(c *gin.Context, j *job.Job, err error) {
	resp := errorBody(err)
	if j != nil && j.ID != "" {
		resp["job_id"] = j.ID
	}

	status := http.StatusBadRequest
	var pe *printer.PrintError
	switch {
	case errors.As(err, &pe):
		status = statusForKind(pe.Kind)
	case errors.Is(err, job.ErrClosed):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func errorBody(err error) gin.H {
	resp := gin.H{
		"success": false,
		"error":   err.Error(),
	}
	var pe *printer.PrintError
	if errors.As(err, &pe) {
		resp["kind"] = pe.Kind
	}
	return resp
}

func statusForKind(kind printer.ErrorKind) int {
	switch kind {
	case printer.NotConfigured:
		return http.StatusBadRequest
	case printer.NotFound:
		return http.StatusNotFound
	case printer.PermissionDenied:
		return http.StatusForbidden
	case printer.ConnectionFailed:
		return http.StatusBadGateway
	case printer.UnsupportedPlatform:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
