package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/fsclass/internal/logging"
	"github.com/CageChen/fsclass/internal/metrics"
)

// NewRouter wires the API routes onto a new gin engine.
func NewRouter(ws *Workspace, wsHandler *WSHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(requestLogger(ws.log))
	if ws.cfg.Metrics {
		r.Use(metrics.Middleware())
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	roots := NewRootsHandler(ws)
	entries := NewEntryHandler(ws)

	api := r.Group("/api")
	{
		api.GET("/roots", roots.GetRoots)
		api.POST("/roots", roots.AddRoot)
		api.DELETE("/roots", roots.RemoveRoot)

		api.GET("/entry/*path", entries.GetEntry)
		api.GET("/list/*path", entries.GetList)
		api.GET("/preview/*path", entries.GetPreview)

		if wsHandler != nil {
			api.GET("/ws", wsHandler.HandleWS)
		}
	}

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
