package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/database"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/logger"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/pipeline"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/render"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/tree"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

//go:generate mockgen -source=handlers.go -destination=mocks/history_store_mock.go -package=mocks HistoryStore

// HistoryStore is the subset of the run history repository the API reads.
type HistoryStore interface {
	ListRuns(ctx context.Context, limit int) ([]database.Run, error)
	Diff(ctx context.Context, fromRunID, toRunID string) ([]database.Change, error)
}

// state is one classification result with the components that produced it.
type state struct {
	result   *pipeline.Result
	pipeline *pipeline.Pipeline
	renderer *render.Renderer
}

// Handler serves the latest classification result.
type Handler struct {
	mu      sync.RWMutex
	current state
	history HistoryStore
	logger  logger.Logger
}

// NewHandler creates a new API handler. history may be nil when run
// history is disabled.
func NewHandler(
	result *pipeline.Result,
	p *pipeline.Pipeline,
	renderer *render.Renderer,
	history HistoryStore,
	log logger.Logger,
) *Handler {
	return &Handler{
		current: state{result: result, pipeline: p, renderer: renderer},
		history: history,
		logger:  log,
	}
}

// Update replaces the served result. Requests already in flight finish
// against the previous one.
func (h *Handler) Update(result *pipeline.Result, p *pipeline.Pipeline, renderer *render.Renderer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = state{result: result, pipeline: p, renderer: renderer}
}

func (h *Handler) snapshot() state {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// LeafCountResponse is the size of one leaf.
type LeafCountResponse struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// PassResponse summarises one top-level pass.
type PassResponse struct {
	Name      string         `json:"name"`
	Counts    map[string]int `json:"counts"`
	Remainder int            `json:"remainder"`
}

// StatsResponse is returned by GET /api/v1/stats.
type StatsResponse struct {
	Total         int                 `json:"total"`
	Uncategorized int                 `json:"uncategorized"`
	Leaves        []LeafCountResponse `json:"leaves"`
	Passes        []PassResponse      `json:"passes"`
}

// ExplainRequest is the body of POST /api/v1/explain.
type ExplainRequest struct {
	Text string `binding:"required" json:"text"`
}

// HealthCheck reports service liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"prayers": h.snapshot().result.Tree.Total(),
	})
}

// GetTree returns the classified tree as ordered JSON.
func (h *Handler) GetTree(c *gin.Context) {
	data, err := h.snapshot().result.Tree.MarshalJSON()
	if err != nil {
		h.logger.Error("Failed to encode tree", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode tree"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// GetStats returns leaf counts and per-pass statistics.
func (h *Handler) GetStats(c *gin.Context) {
	result := h.snapshot().result
	counts := result.Tree.Counts()
	leaves := make([]LeafCountResponse, len(counts))
	for i, lc := range counts {
		leaves[i] = LeafCountResponse{Path: lc.Path.String(), Count: lc.Count}
	}

	passes := make([]PassResponse, len(result.Passes))
	for i, ps := range result.Passes {
		byLabel := make(map[string]int, len(ps.Counts))
		for _, lc := range ps.Counts {
			byLabel[lc.Label] = lc.Count
		}
		passes[i] = PassResponse{Name: ps.Name, Counts: byLabel, Remainder: ps.Remainder}
	}

	c.JSON(http.StatusOK, StatsResponse{
		Total:         result.Tree.Total(),
		Uncategorized: len(result.Remainder),
		Leaves:        leaves,
		Passes:        passes,
	})
}

// GetCategory returns the prayers of a leaf, or the child labels of a branch.
func (h *Handler) GetCategory(c *gin.Context) {
	raw := strings.Trim(c.Param("path"), tree.PathSeparator)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category path is required"})
		return
	}

	path := tree.ParsePath(raw)
	node, ok := h.snapshot().result.Tree.Find(path)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found", "path": path.String()})
		return
	}

	if node.IsLeaf() {
		prayers := node.Prayers
		if prayers == nil {
			prayers = []domain.Prayer{}
		}
		c.JSON(http.StatusOK, gin.H{
			"path":    path.String(),
			"count":   len(prayers),
			"prayers": prayers,
		})
		return
	}

	children := make([]string, len(node.Children))
	for i, child := range node.Children {
		children[i] = child.Label
	}
	c.JSON(http.StatusOK, gin.H{
		"path":     path.String(),
		"count":    node.Len(),
		"children": children,
	})
}

// Explain reports which top-level category a piece of text would land in.
func (h *Handler) Explain(c *gin.Context) {
	var req ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid explain request", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := h.snapshot().pipeline
	exp, err := p.Explain(req.Text)
	if err != nil {
		h.logger.Error("Explain failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if exp.Category == "" {
		exp.Category = p.RemainderLabel()
	}
	c.JSON(http.StatusOK, exp)
}

// ListRuns returns recorded classification runs, newest first.
func (h *Handler) ListRuns(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history is disabled"})
		return
	}

	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.history.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list runs", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	if runs == nil {
		runs = []database.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// DiffRuns lists prayers whose leaf changed between two runs.
func (h *Handler) DiffRuns(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history is disabled"})
		return
	}

	from, to := c.Param("from"), c.Param("to")
	changes, err := h.history.Diff(c.Request.Context(), from, to)
	if errors.Is(err, database.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Failed to diff runs",
			logger.String("from", from),
			logger.String("to", to),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to diff runs"})
		return
	}
	if changes == nil {
		changes = []database.Change{}
	}
	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "changes": changes, "count": len(changes)})
}

// Index renders the prayer book page.
func (h *Handler) Index(c *gin.Context) {
	snap := h.snapshot()
	var buf bytes.Buffer
	if err := snap.renderer.Render(&buf, snap.result.Tree); err != nil {
		h.logger.Error("Failed to render page", logger.Error(err))
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
