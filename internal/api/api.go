// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package api exposes the route query bridge over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wneessen/routebridge/internal/engine"
	"github.com/wneessen/routebridge/internal/geo"
	"github.com/wneessen/routebridge/internal/logger"
	"github.com/wneessen/routebridge/internal/routing"
)

// Router is the part of the route query bridge used by the API.
type Router interface {
	RouteContext(ctx context.Context, start, end geo.Coordinate) routing.Result
	Search(query string, limit int) ([]engine.Place, error)
	Stats() (engine.Stats, bool)
}

// SearchRequest holds the query parameters of a place search.
type SearchRequest struct {
	Query string `form:"q" binding:"required"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// RouteRequest is the body of a route query.
type RouteRequest struct {
	Start *geo.Coordinate `json:"start" binding:"required"`
	End   *geo.Coordinate `json:"end" binding:"required"`
}

// Server serves the HTTP API.
type Server struct {
	router  Router
	log     *logger.Logger
	timeout time.Duration
}

// New returns a Server. Queries taking longer than timeout fail with an internal error;
// a non-positive timeout disables the limit.
func New(router Router, log *logger.Logger, timeout time.Duration) *Server {
	return &Server{router: router, log: log, timeout: timeout}
}

// Handler returns the gin engine with all routes registered.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/ping", s.ping)
	v1 := r.Group("/api/v1")
	v1.GET("/stats", s.stats)
	v1.POST("/route", s.route)
	v1.GET("/search", s.search)
	return r
}

func (s *Server) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (s *Server) stats(c *gin.Context) {
	stats, ok := s.router.Stats()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no dataset loaded"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) route(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	result := s.router.RouteContext(ctx, *req.Start, *req.End)

	status := http.StatusOK
	if result.Reason() == routing.ReasonInvalidInput {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}

func (s *Server) search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: search query is blank"})
		return
	}

	places, err := s.router.Search(req.Query, req.Limit)
	switch {
	case errors.Is(err, routing.ErrSearchUnsupported):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if places == nil {
		places = []engine.Place{}
	}
	c.JSON(http.StatusOK, gin.H{"places": places})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		began := time.Now()
		c.Next()
		s.log.Debug("handled HTTP request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(began)),
		)
	}
}
