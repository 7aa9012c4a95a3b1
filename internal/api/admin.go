package api

import (
	"net/http"
	"strconv"

	"shanti-orders/internal/models"

	"github.com/gin-gonic/gin"
)

// listOrders returns one status tab, newest first. Defaults to pending.
func (h *Handler) listOrders(c *gin.Context) {
	status := models.OrderStatusPending
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			badRequest(c, "Invalid status", err)
			return
		}
		status = parsed
	}

	orders, err := h.admin.ListByStatus(c.Request.Context(), status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"orders": orders,
	})
}

func (h *Handler) countOrders(c *gin.Context) {
	counts, err := h.admin.Counts(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// getOrder is the drill-in view. It lists the moves the operator may still
// make so closed orders render without action buttons.
func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.admin.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":         order,
		"terminal":      order.Status.IsTerminal(),
		"next_statuses": order.Status.Next(),
	})
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) transitionOrder(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	to, err := models.ParseStatus(req.Status)
	if err != nil {
		badRequest(c, "Invalid status", err)
		return
	}

	order, err := h.admin.Transition(c.Request.Context(), c.Param("id"), to)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// deleteOrder needs ?confirm=true
func (h *Handler) deleteOrder(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))

	if err := h.admin.Delete(c.Request.Context(), c.Param("id"), confirmed); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getInvoice(c *gin.Context) {
	inv, err := h.admin.Invoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}
