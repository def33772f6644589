package httpapi

import (
	"errors"
	"net/http"
	"regexp"

	"inboxpulse/internal/ingest"
	"inboxpulse/internal/report"
	"inboxpulse/internal/store"
	"inboxpulse/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return
// JSON or rendered HTML.

type Handlers struct {
	Store   store.Store
	Reports *report.Service
	Ingest  *ingest.Service

	// Cache may be nil when no Redis address is configured; dashboards then
	// render on every request.
	Cache *Cache
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

const htmlContentType = "text/html; charset=utf-8"

// --- Day summaries ---

// GetDay returns one DaySummary by date.
func (h Handlers) GetDay(c *gin.Context) {
	date := c.Param("date")
	if !datePattern.MatchString(date) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	rec, err := h.Store.Day(c.Request.Context(), date)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no data for date"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("day lookup failed", "date", date, "error", err.Error())
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "day lookup failed"})
		return
	}
	c.JSON(http.StatusOK, rec.Summary)
}

// ListDays returns the DaySummary records inside an inclusive date range.
// Empty bounds mean unbounded.
func (h Handlers) ListDays(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from != "" && !datePattern.MatchString(from) || to != "" && !datePattern.MatchString(to) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from/to must be YYYY-MM-DD"})
		return
	}
	recs, err := h.Store.Days(c.Request.Context(), from, to)
	if err != nil {
		logger.FromGin(c).Error("day range lookup failed", "error", err.Error())
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "day range lookup failed"})
		return
	}
	summaries := make([]any, 0, len(recs))
	for _, r := range recs {
		summaries = append(summaries, r.Summary)
	}
	c.JSON(http.StatusOK, gin.H{"days": summaries, "count": len(summaries)})
}

// GetWeekly returns the WeeklySummary for ?week=2025-W31 or, without the
// parameter, the seven days ending yesterday.
func (h Handlers) GetWeekly(c *gin.Context) {
	sum, _, err := h.Reports.Weekly(c.Request.Context(), c.Query("week"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// GetMeta returns the store's metadata block.
func (h Handlers) GetMeta(c *gin.Context) {
	meta, err := h.Store.Meta(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("meta lookup failed", "error", err.Error())
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "meta lookup failed"})
		return
	}
	c.JSON(http.StatusOK, meta)
}

// --- Dashboards ---

// DashboardDaily serves the rendered daily dashboard, cached when possible.
func (h Handlers) DashboardDaily(c *gin.Context) {
	h.dashboard(c, "daily", func() ([]byte, error) {
		return h.Reports.Daily(c.Request.Context(), c.Query("date"))
	})
}

// DashboardWeekly serves the rendered weekly dashboard, cached when possible.
func (h Handlers) DashboardWeekly(c *gin.Context) {
	h.dashboard(c, "weekly", func() ([]byte, error) {
		return h.Reports.WeeklyHTML(c.Request.Context(), c.Query("week"))
	})
}

func (h Handlers) dashboard(c *gin.Context, name string, render func() ([]byte, error)) {
	// Parameterized requests bypass the cache; only the default view is hot.
	cacheable := len(c.Request.URL.RawQuery) == 0

	if cacheable {
		if page, ok := h.Cache.Get(c.Request.Context(), name); ok {
			c.Data(http.StatusOK, htmlContentType, page)
			return
		}
	}

	page, err := render()
	if errors.Is(err, report.ErrNoData) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no data to render"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("dashboard render failed", "dashboard", name, "error", err.Error())
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dashboard render failed"})
		return
	}

	if cacheable {
		h.Cache.Set(c.Request.Context(), name, page)
	}
	c.Data(http.StatusOK, htmlContentType, page)
}

// --- Admin ---

// AdminIngest triggers one ingestion run and invalidates cached dashboards.
// RBAC: admin only; wired in the routes file.
func (h Handlers) AdminIngest(c *gin.Context) {
	rep, err := h.Ingest.Run(c.Request.Context())
	if errors.Is(err, ingest.ErrNoInput) {
		c.JSON(http.StatusOK, gin.H{"report": rep, "note": "no csv files waiting"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("ingestion run failed", "run_id", rep.RunID, "error", err.Error())
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "ingestion run failed"})
		return
	}

	h.Cache.Bump(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"report": rep})
}
