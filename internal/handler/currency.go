package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListCurrencies godoc
// @Summary      List tracked currencies
// @Description  Returns the registry of tracked currencies and their descriptors
// @Tags         currencies
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/currencies [get]
func (h *Handler) ListCurrencies(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.list-currencies")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{"currencies": h.registry.Descriptors()})
}
