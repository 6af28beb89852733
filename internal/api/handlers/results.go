package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"negprice/internal/api/models"
	"negprice/internal/store"
)

// ResultsHandler serves previously saved report payloads by permalink id.
type ResultsHandler struct {
	results *store.Results
}

func NewResultsHandler(results *store.Results) *ResultsHandler {
	return &ResultsHandler{results: results}
}

// Get handles GET /api/v1/results/:id.
func (h *ResultsHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !store.ValidID(id) {
		c.JSON(http.StatusBadRequest, models.Errorf("BAD_ID", "result id must be 8 hex characters"))
		return
	}
	raw, err := h.results.Load(id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.Errorf("NOT_FOUND", "no result with id "+id))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.Errorf("INTERNAL_ERROR", err.Error()))
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}
