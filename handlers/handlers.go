package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/vickybesra/Order-Execution-Engine/models"
	"github.com/vickybesra/Order-Execution-Engine/service"
	"github.com/vickybesra/Order-Execution-Engine/utils"
)

type OrderHandler struct {
	Service     *service.OrderService
	Broadcaster *service.Broadcaster
	Validator   *validator.Validate
}

func NewOrderHandler(s *service.OrderService, b *service.Broadcaster) *OrderHandler {
	return &OrderHandler{
		Service:     s,
		Broadcaster: b,
		Validator:   utils.GetValidator(),
	}
}

func formatValidationError(err error) map[string]string {
	errs := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			errs[e.Field()] = "failed on tag '" + e.Tag() + "'"
		}
	}
	return errs
}

// POST /orders
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req models.PlaceOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.Validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"validation_errors": formatValidationError(err)})
		return
	}

	resp, err := h.Service.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// GET /orders/:id
func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	orderID := c.Param("id")
	order, err := h.Service.GetOrderStatus(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.OrderStatusResponse{Order: order})
}

// GET /orders
func (h *OrderHandler) ListActiveOrders(c *gin.Context) {
	ids, err := h.Service.ListActiveOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.ActiveOrdersResponse{OrderIDs: ids, Count: len(ids)})
}

// GET /health
func (h *OrderHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
