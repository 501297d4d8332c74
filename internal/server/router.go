// Package server wires the REST surface: routing, CORS, scope resolution,
// and request metrics.
package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/steadylab/caffeine-tracker/internal/auth"
	"github.com/steadylab/caffeine-tracker/internal/intake"
	"github.com/steadylab/caffeine-tracker/internal/metrics"
	"github.com/steadylab/caffeine-tracker/internal/storage"
	"go.uber.org/zap"
)

const scopeContextKey = "caffeine_scope"

var (
	errMissingIntakeService = errors.New("intake service dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	Intake      *intake.Service
	BackendType storage.BackendType
	Tokens      *auth.TokenManager
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	Version     string
	CORSOrigin  string
}

// NewHTTPHandler builds the gin router for the API server.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Intake == nil {
		return nil, errMissingIntakeService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if deps.Metrics != nil {
		router.Use(requestMetrics(deps.Metrics))
	}

	origin := deps.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{origin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		intake:      deps.Intake,
		backendType: deps.BackendType,
		tokens:      deps.Tokens,
		metrics:     deps.Metrics,
		logger:      logger,
		version:     deps.Version,
	}

	router.GET("/api/health", handler.handleHealth)
	router.GET("/api/version", handler.handleVersion)
	router.GET("/api/presets", handler.handlePresets)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	if handler.tokens.Enabled() {
		router.POST("/api/auth/token", handler.handleIssueToken)
	}

	logs := router.Group("/api")
	logs.Use(handler.resolveScope)
	logs.GET("/logs", handler.handleListLogs)
	logs.POST("/logs", handler.handleCreateLog)
	logs.DELETE("/logs/:id", handler.handleDeleteLog)
	logs.GET("/summary", handler.handleSummary)

	return router, nil
}

type httpHandler struct {
	intake      *intake.Service
	backendType storage.BackendType
	tokens      *auth.TokenManager
	metrics     *metrics.Metrics
	logger      *zap.Logger
	version     string
}

// resolveScope binds the request to its owner key. With tokens enabled the
// bearer subject is the scope; otherwise every request shares the empty
// single-user scope.
func (h *httpHandler) resolveScope(c *gin.Context) {
	if !h.tokens.Enabled() {
		c.Set(scopeContextKey, "")
		c.Next()
		return
	}

	header := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if !strings.HasPrefix(header, "Bearer ") || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}

	subject, err := h.tokens.Validate(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(scopeContextKey, subject)
	c.Next()
}

func requestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status())
	}
}
