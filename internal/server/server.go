// Package server exposes a directory of bank files, and the banks loaded from
// it, over HTTP so browsers and remote players can fetch them.
package server

import (
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zjrosen/pitchplay/internal/bank/domain"
	"github.com/zjrosen/pitchplay/internal/log"
)

const sentryFlushTimeout = 2 * time.Second

// Banks is the read side of the bank registry.
type Banks interface {
	IDs() []string
	Get(id string) (domain.Entry, bool)
}

// Config configures the router.
type Config struct {
	// Dir is served under /banks/.
	Dir string
	// Banks backs the /api/banks endpoints. It may be nil.
	Banks Banks
	// Sentry attaches the sentry-go middleware.
	Sentry bool
}

// BankSummary describes a registered bank.
type BankSummary struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	Notes    int       `json:"notes"`
	LoadedAt time.Time `json:"loaded_at"`
}

// NewRouter builds the gin engine serving cfg.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{
			Repanic: true,
			Timeout: sentryFlushTimeout,
		}))
	}
	r.Use(requestTracking(), allowAnyOrigin())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Dir != "" {
		r.Static("/banks", cfg.Dir)
	}

	api := r.Group("/api")
	api.GET("/banks", listBanks(cfg.Banks))
	api.GET("/banks/:id", getBank(cfg.Banks))
	return r
}

func listBanks(banks Banks) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := []BankSummary{}
		if banks != nil {
			for _, id := range banks.IDs() {
				e, ok := banks.Get(id)
				if !ok {
					continue
				}
				out = append(out, BankSummary{ID: e.ID, URL: e.URL, Notes: e.Bank.Len(), LoadedAt: e.LoadedAt})
			}
		}
		c.JSON(http.StatusOK, out)
	}
}

func getBank(banks Banks) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if banks == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrBankNotFound.Error(), "id": id})
			return
		}
		e, ok := banks.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrBankNotFound.Error(), "id": id})
			return
		}
		c.JSON(http.StatusOK, e.Bank)
	}
}

// requestTracking tags each request with an id and logs its outcome.
func requestTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Header("X-Request-ID", requestID)
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error(log.CatServe, "Request failed", args...)
		case status >= http.StatusBadRequest:
			log.Warn(log.CatServe, "Request rejected", args...)
		default:
			log.Debug(log.CatServe, "Request completed", args...)
		}
	}
}

func allowAnyOrigin() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
