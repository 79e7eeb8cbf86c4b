package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/julianjca/op-portfolio-tracker/internal/models"
	"github.com/julianjca/op-portfolio-tracker/internal/services"
)

type CardHandler struct {
	db     *gorm.DB
	prices *services.PriceRecorder
}

func NewCardHandler(db *gorm.DB, prices *services.PriceRecorder) *CardHandler {
	return &CardHandler{
		db:     db,
		prices: prices,
	}
}

// lookupCard resolves the :id param; it writes the error response and returns nil on failure
func (h *CardHandler) lookupCard(c *gin.Context) *models.Card {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return nil
	}

	var card models.Card
	err = h.db.WithContext(c.Request.Context()).First(&card, uint(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return nil
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil
	}
	return &card
}

// GetCardPrices returns the current price per condition and grade for a card
func (h *CardHandler) GetCardPrices(c *gin.Context) {
	card := h.lookupCard(c)
	if card == nil {
		return
	}

	prices, err := h.prices.CurrentCardPrices(c.Request.Context(), card.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"card":   card,
		"prices": prices,
	})
}

// GetCardPopulation returns the population snapshot of a card, best grade first
func (h *CardHandler) GetCardPopulation(c *gin.Context) {
	card := h.lookupCard(c)
	if card == nil {
		return
	}

	var rows []models.GradingPopulation
	err := h.db.WithContext(c.Request.Context()).
		Where("card_id = ?", card.ID).
		Order("grading_company, grade DESC").
		Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"card":       card,
		"population": rows,
	})
}
