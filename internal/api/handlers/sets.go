package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/julianjca/op-portfolio-tracker/internal/models"
)

type SetHandler struct {
	db *gorm.DB
}

func NewSetHandler(db *gorm.DB) *SetHandler {
	return &SetHandler{db: db}
}

// GetSets lists sets with their last computed values
func (h *SetHandler) GetSets(c *gin.Context) {
	var sets []models.Set
	query := h.db.WithContext(c.Request.Context()).Order("release_date DESC, code")

	if c.Query("valued") == "true" {
		query = query.Where("value_updated_at IS NOT NULL")
	}

	if err := query.Find(&sets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sets)
}

// GetSet returns one set by code
func (h *SetHandler) GetSet(c *gin.Context) {
	var set models.Set
	err := h.db.WithContext(c.Request.Context()).Where("code = ?", c.Param("code")).Take(&set).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "set not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, set)
}
