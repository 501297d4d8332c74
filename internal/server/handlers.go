package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/steadylab/caffeine-tracker/internal/dose"
	"github.com/steadylab/caffeine-tracker/internal/intake"
	"go.uber.org/zap"
)

// Error bodies kept byte-compatible with the previous API generation so
// existing clients keep working.
const (
	errBodyMissingDate   = "date is required (YYYY-MM-DD)"
	errBodyMissingFields = "name, size, caffeine are required"
	errBodyDatabaseError = "Database error"
)

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"db_type": string(h.backendType),
	})
}

func (h *httpHandler) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": h.version})
}

func (h *httpHandler) handlePresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"drinks":         intake.Presets(),
		"sizes":          intake.CanSizesMl(),
		"daily_limit_mg": dose.DefaultDailyLimitMg,
	})
}

type issueTokenPayload struct {
	Subject string `json:"subject"`
}

func (h *httpHandler) handleIssueToken(c *gin.Context) {
	var request issueTokenPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Subject) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject is required"})
		return
	}

	token, expiresIn, err := h.tokens.Issue(request.Subject)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"expires_in":   expiresIn,
		"token_type":   "Bearer",
	})
}

func (h *httpHandler) handleListLogs(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBodyMissingDate})
		return
	}

	entries, err := h.intake.ListLogs(c.Request.Context(), c.GetString(scopeContextKey), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

type createLogPayload struct {
	Name          string   `json:"name"`
	Size          *int     `json:"size"`
	Caffeine      *int     `json:"caffeine"`
	CaffeinePerMl *float64 `json:"caffeinePerMl"`
	Icon          *string  `json:"icon"`
	IsPreset      bool     `json:"isPreset"`
	Date          string   `json:"date"`
}

func (h *httpHandler) handleCreateLog(c *gin.Context) {
	var request createLogPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBodyMissingFields})
		return
	}
	if strings.TrimSpace(request.Name) == "" || request.Size == nil || request.Caffeine == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBodyMissingFields})
		return
	}

	draft := intake.Draft{
		Name:          request.Name,
		Size:          *request.Size,
		Caffeine:      *request.Caffeine,
		CaffeinePerMl: request.CaffeinePerMl,
		Icon:          request.Icon,
		IsPreset:      request.IsPreset,
		Date:          request.Date,
	}

	entry, err := h.intake.CreateLog(c.Request.Context(), c.GetString(scopeContextKey), draft)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.LogsCreated.Inc()
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *httpHandler) handleDeleteLog(c *gin.Context) {
	err := h.intake.DeleteLog(c.Request.Context(), c.GetString(scopeContextKey), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.LogsDeleted.Inc()
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *httpHandler) handleSummary(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBodyMissingDate})
		return
	}

	summary, err := h.intake.DailySummary(c.Request.Context(), c.GetString(scopeContextKey), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// respondError maps validation failures to 400 and everything else to the
// generic 500 body.
func (h *httpHandler) respondError(c *gin.Context, err error) {
	var validationErr *intake.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
		return
	}

	fields := []zap.Field{zap.Error(err)}
	var serviceErr *intake.ServiceError
	if errors.As(err, &serviceErr) {
		fields = append(fields, zap.String("code", serviceErr.Code()))
	}
	h.logger.Error("request failed", fields...)
	c.JSON(http.StatusInternalServerError, gin.H{"error": errBodyDatabaseError})
}
