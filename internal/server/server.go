// Package server exposes the desk over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rustyeddy/fxdesk/dashboard"
	"github.com/rustyeddy/fxdesk/ledger"
	"github.com/rustyeddy/fxdesk/market"
)

// Desk is the part of dashboard.Desk the handlers use.
type Desk interface {
	SubmitQuery(ctx context.Context, f dashboard.QueryForm) (dashboard.QueryResult, error)
	SubmitTrade(ctx context.Context, f dashboard.TradeForm) (dashboard.TradeResult, error)
	Table() []ledger.Record
}

type Server struct {
	R      *gin.Engine
	desk   Desk
	logger *zap.Logger
}

type apiError struct {
	Error string `json:"error"`
}

type ledgerResponse struct {
	Rows []ledger.Record `json:"rows"`
}

// New wires the router and its middleware.
func New(desk Desk, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := gin.New()

	g.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	})
	g.Use(gin.Recovery())

	s := &Server{R: g, desk: desk, logger: logger}

	g.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	api := g.Group("/api")
	api.GET("/options", s.getOptions)
	api.GET("/ledger", s.getLedger)
	api.POST("/query", s.postQuery)
	api.POST("/trade", s.postTrade)

	return s
}

func (s *Server) getOptions(c *gin.Context) {
	c.JSON(http.StatusOK, dashboard.FormOptions())
}

func (s *Server) getLedger(c *gin.Context) {
	rows := s.desk.Table()
	if rows == nil {
		rows = []ledger.Record{}
	}
	c.JSON(http.StatusOK, ledgerResponse{Rows: rows})
}

func (s *Server) postQuery(c *gin.Context) {
	var f dashboard.QueryForm
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	res, err := s.desk.SubmitQuery(c.Request.Context(), f)
	if err != nil {
		s.fail(c, "SubmitQuery", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) postTrade(c *gin.Context) {
	var f dashboard.TradeForm
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	res, err := s.desk.SubmitTrade(c.Request.Context(), f)
	if err != nil {
		s.fail(c, "SubmitTrade", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// fail maps an action error to its status code.
func (s *Server) fail(c *gin.Context, where string, err error) {
	switch {
	case errors.Is(err, dashboard.ErrActionInFlight):
		c.JSON(http.StatusConflict, apiError{Error: err.Error()})
	case errors.Is(err, market.ErrInvalidOrder):
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
	default:
		s.logger.Error("internal_error", zap.String("where", where), zap.Error(err))
		c.JSON(http.StatusInternalServerError, apiError{Error: err.Error()})
	}
}
