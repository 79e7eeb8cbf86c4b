package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/julianjca/op-portfolio-tracker/internal/models"
	"github.com/julianjca/op-portfolio-tracker/internal/services"
)

type SyncHandler struct {
	syncService *services.SyncService
}

func NewSyncHandler(syncService *services.SyncService) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
	}
}

// bindOptionalJSON binds a JSON body into req; an empty body keeps the defaults
func bindOptionalJSON(c *gin.Context, req any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// jobContext detaches the job from client disconnects; a job runs to completion once started
func jobContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// respondJob writes the structured result with a status derived from the job error
func respondJob(c *gin.Context, result any, err error) {
	var unavailable *services.SourceUnavailableError
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, services.ErrNotConfigured), errors.Is(err, services.ErrUnknownAction):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNoSets):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrUnsupportedProvider):
		// Reported through success=false in the body
	case errors.As(err, &unavailable):
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}
	c.JSON(status, result)
}

// SyncSets handles POST /api/sync/sets
func (h *SyncHandler) SyncSets(c *gin.Context) {
	var req services.SetSyncRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.syncService.SyncSets(jobContext(c), req)
	respondJob(c, result, err)
}

// SyncCards handles POST /api/sync/cards
func (h *SyncHandler) SyncCards(c *gin.Context) {
	var req services.CardSyncRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.syncService.SyncCards(jobContext(c), req)
	respondJob(c, result, err)
}

// SyncPopulation handles POST /api/sync/population
func (h *SyncHandler) SyncPopulation(c *gin.Context) {
	var req services.PopulationSyncRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.syncService.SyncPopulation(jobContext(c), req)
	respondJob(c, result, err)
}

// SyncSlabPrices handles POST /api/sync/slab-prices
func (h *SyncHandler) SyncSlabPrices(c *gin.Context) {
	var req services.SlabPriceSyncRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.syncService.SyncSlabPrices(jobContext(c), req)
	respondJob(c, result, err)
}

// CalculateSetValues handles POST /api/sync/set-values
func (h *SyncHandler) CalculateSetValues(c *gin.Context) {
	var req services.CalculateRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.syncService.CalculateSetValues(jobContext(c), req)
	respondJob(c, result, err)
}

// GetSyncLogs returns recent job invocations, newest first
func (h *SyncHandler) GetSyncLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	kind := models.SyncKind(c.Query("kind"))

	entries, err := h.syncService.Logs().Recent(c.Request.Context(), kind, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, entries)
}
