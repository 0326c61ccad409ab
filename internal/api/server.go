// Package api serves the dashboard over HTTP and websocket.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trade-journal-lab/internal/dashboard"
	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/filter"
	"trade-journal-lab/internal/normalization"
	"trade-journal-lab/internal/observability"
	"trade-journal-lab/internal/segment"
)

// maxUploadBytes caps the size of an imported table.
const maxUploadBytes = 32 << 20

// Importer persists an uploaded table.
type Importer interface {
	ImportTable(ctx context.Context, source string, r io.Reader) (*normalization.ImportReport, error)
}

// Server wires the dashboard engine and filter pipeline to HTTP routes.
type Server struct {
	engine   *dashboard.Engine
	pipeline *filter.Pipeline
	importer Importer // nil disables uploads
	hub      *Hub
	logger   *zap.Logger

	// history is the last query pushed by the pipeline
	historyMu sync.Mutex
	history   url.Values

	stopListen func()
}

// NewServer creates a server. Call Sink and Notifier when building the
// pipeline so commits and failures reach clients.
func NewServer(engine *dashboard.Engine, importer Importer, hub *Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hub == nil {
		hub = NewHub(nil, logger)
	}
	s := &Server{
		engine:   engine,
		importer: importer,
		hub:      hub,
		logger:   logger.Named("api"),
		history:  url.Values{},
	}
	s.stopListen = engine.Listen(func(sum *dashboard.Summary) {
		hub.Broadcast(Message{Type: MessageSummary, Data: sum})
	})
	return s
}

// Attach sets the pipeline the filter routes drive.
func (s *Server) Attach(p *filter.Pipeline) {
	s.pipeline = p
}

// Push implements filter.URLSink by recording the shareable query.
func (s *Server) Push(values url.Values) error {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	s.history = values
	return nil
}

// NotifyFailure implements filter.Notifier by telling clients the last
// apply was rolled back.
func (s *Server) NotifyFailure(c domain.FilterCriteria, err error) {
	query, _ := filter.Encode(c)
	s.hub.Broadcast(Message{Type: MessageFilterFailed, Data: gin.H{
		"query": query,
		"error": err.Error(),
	}})
}

// Close stops broadcasting and disconnects websocket clients.
func (s *Server) Close() {
	s.stopListen()
	s.hub.Close()
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.observe())

	r.GET("/health", s.handleHealthCheck)
	r.GET("/metrics", gin.WrapH(observability.Handler()))
	r.GET("/ws", func(c *gin.Context) { s.hub.ServeWS(c.Writer, c.Request) })

	api := r.Group("/api")
	{
		api.GET("/summary", s.handleSummary)
		api.GET("/breakdown/:dimension", s.handleBreakdown)
		api.GET("/heatmap", s.handleHeatmap)
		api.GET("/equity", s.handleEquity)

		api.GET("/filters", s.handleGetFilters)
		api.POST("/filters", s.handleEditFilters)
		api.POST("/filters/reset", s.handleResetFilters)
		api.PUT("/filters/history", s.handleHistory)

		api.POST("/import", s.handleImport)
	}
	return r
}

// observe records request counts and latency per route template.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observability.RecordHTTPRequest(route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

func (s *Server) handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"trades":    s.engine.Summary().Total,
	})
}

// criteria parses the request query. ok is false when a response was written.
func criteria(c *gin.Context) (domain.FilterCriteria, bool) {
	fc, err := filter.Parse(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return fc, false
	}
	return fc, true
}

// handleSummary returns the committed summary, or an ad hoc one when the
// request carries a filter query.
func (s *Server) handleSummary(c *gin.Context) {
	if len(c.Request.URL.Query()) == 0 {
		c.JSON(http.StatusOK, s.engine.Summary())
		return
	}
	fc, ok := criteria(c)
	if !ok {
		return
	}
	sum, err := s.engine.Compute(fc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) handleBreakdown(c *gin.Context) {
	dim, err := domain.ParseDimension(c.Param("dimension"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	fc, ok := criteria(c)
	if !ok {
		return
	}

	b := s.engine.Breakdown(fc, dim)
	resp := gin.H{"breakdown": b, "ranked": segment.Ranked(b)}
	if best, ok := segment.Best(b); ok {
		resp["best"] = best
	}
	if worst, ok := segment.Worst(b); ok {
		resp["worst"] = worst
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHeatmap(c *gin.Context) {
	fc, ok := criteria(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.engine.Heatmap(fc))
}

func (s *Server) handleEquity(c *gin.Context) {
	fc, ok := criteria(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.engine.Equity(fc))
}

func (s *Server) handleGetFilters(c *gin.Context) {
	if s.pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "filter pipeline not attached"})
		return
	}
	ui, _ := filter.Encode(s.pipeline.UIFilters())
	committed, _ := filter.Encode(s.pipeline.CommittedFilters())

	s.historyMu.Lock()
	history := s.history.Encode()
	s.historyMu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"ui":        ui,
		"committed": committed,
		"history":   history,
		"pending":   s.pipeline.Pending(),
	})
}

// patchRequest mirrors the query keys. Absent keys keep their value and
// empty strings clear it.
type patchRequest struct {
	Symbol  *string `json:"symbol"`
	Side    *string `json:"side"`
	PnL     *string `json:"pnl"`
	From    *string `json:"from"`
	To      *string `json:"to"`
	Weekday *string `json:"weekday"`
	Session *string `json:"session"`
}

// toPatch validates every present field through the query parser.
func (p patchRequest) toPatch() (domain.FilterPatch, error) {
	v := url.Values{}
	set := func(key string, val *string) {
		if val != nil {
			v.Set(key, *val)
		}
	}
	set(filter.KeySymbol, p.Symbol)
	set(filter.KeySide, p.Side)
	set(filter.KeyPnL, p.PnL)
	set(filter.KeyFrom, p.From)
	set(filter.KeyTo, p.To)
	set(filter.KeyWeekday, p.Weekday)
	set(filter.KeySession, p.Session)

	fc, err := filter.Parse(v)
	if err != nil {
		return domain.FilterPatch{}, err
	}

	var patch domain.FilterPatch
	if p.Symbol != nil {
		patch.Instrument = &fc.Instrument
	}
	if p.Side != nil {
		patch.Side = &fc.Side
	}
	if p.PnL != nil {
		patch.PnL = &fc.PnL
	}
	if p.From != nil {
		patch.DateFrom = &fc.DateFrom
	}
	if p.To != nil {
		patch.DateTo = &fc.DateTo
	}
	if p.Weekday != nil {
		patch.Weekday = &fc.Weekday
	}
	if p.Session != nil {
		patch.Session = &fc.Session
	}
	return patch, nil
}

func (s *Server) handleEditFilters(c *gin.Context) {
	if s.pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "filter pipeline not attached"})
		return
	}
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ui := s.pipeline.Edit(patch)
	query, _ := filter.Encode(ui)
	c.JSON(http.StatusAccepted, gin.H{"ui": query, "pending": true})
}

func (s *Server) handleResetFilters(c *gin.Context) {
	if s.pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "filter pipeline not attached"})
		return
	}
	s.pipeline.Reset()
	c.JSON(http.StatusOK, gin.H{"committed": ""})
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "filter pipeline not attached"})
		return
	}
	if err := s.pipeline.ForceFromHistory(c.Request.URL.Query()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	committed, _ := filter.Encode(s.pipeline.CommittedFilters())
	c.JSON(http.StatusOK, gin.H{"committed": committed})
}

// handleImport accepts a multipart "file" field or a raw request body.
func (s *Server) handleImport(c *gin.Context) {
	if s.importer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "imports are disabled"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	source := c.DefaultQuery("source", "api")
	var r io.Reader = c.Request.Body
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		r, source = f, fh.Filename
	} else if !errors.Is(err, http.ErrNotMultipart) && !errors.Is(err, http.ErrMissingFile) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	report, err := s.importer.ImportTable(ctx, source, r)
	if err != nil {
		s.logger.Error("import failed", zap.String("source", source), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err := s.engine.Reload(ctx); err != nil {
		s.logger.Error("reload after import failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "import": report})
		return
	}
	c.JSON(http.StatusOK, report)
}
