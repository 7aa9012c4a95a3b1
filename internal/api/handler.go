package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"shanti-orders/internal/interpreter"
	"shanti-orders/internal/models"
	"shanti-orders/internal/service"
	"shanti-orders/internal/store"
	"shanti-orders/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Storefront is the shop-facing configuration shown to customers
type Storefront struct {
	Business       service.BusinessIdentity
	PaymentPhone   string
	MinOrderAmount int64
	MaxImageBytes  int64
}

// Handler contains HTTP handlers
type Handler struct {
	carts      *service.CartRegistry
	admin      *service.AdminService
	notes      *interpreter.NoteService
	storefront Storefront
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	carts *service.CartRegistry,
	admin *service.AdminService,
	notes *interpreter.NoteService,
	storefront Storefront,
) *Handler {
	return &Handler{
		carts:      carts,
		admin:      admin,
		notes:      notes,
		storefront: storefront,
		logger:     util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/storefront", h.getStorefront)

		v1.POST("/carts", h.createCart)
		v1.GET("/carts/:id", h.getCart)
		v1.DELETE("/carts/:id", h.dropCart)
		v1.POST("/carts/:id/items", h.addItems)
		v1.PATCH("/carts/:id/items/:name", h.updateQuantity)
		v1.DELETE("/carts/:id/items", h.clearCart)
		v1.DELETE("/carts/:id/items/:name", h.removeItem)
		v1.POST("/carts/:id/checkout", h.checkout)
		v1.POST("/carts/:id/interpret", h.interpretNote)

		v1.POST("/prescriptions", h.uploadPrescription)
		v1.POST("/suggestions", h.suggest)
	}

	admin := v1.Group("/admin/orders")
	{
		admin.GET("", h.listOrders)
		admin.GET("/counts", h.countOrders)
		admin.GET("/:id", h.getOrder)
		admin.POST("/:id/status", h.transitionOrder)
		admin.DELETE("/:id", h.deleteOrder)
		admin.GET("/:id/invoice", h.getInvoice)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the order store can be read
func (h *Handler) readinessCheck(c *gin.Context) {
	if _, err := h.admin.Counts(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) getStorefront(c *gin.Context) {
	charges := make([]gin.H, 0, len(models.DistanceBands))
	for _, d := range models.DistanceBands {
		charge, _ := models.DeliveryCharge(d)
		charges = append(charges, gin.H{"distance": d, "charge": charge})
	}

	c.JSON(http.StatusOK, gin.H{
		"business":                     h.storefront.Business,
		"payment_phone":                h.storefront.PaymentPhone,
		"min_order_amount":             h.storefront.MinOrderAmount,
		"delivery_charges":             charges,
		"cart_payment_methods":         models.CartPaymentMethods,
		"prescription_payment_methods": models.PrescriptionPaymentMethods,
	})
}

// writeError maps service errors onto HTTP responses
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Validation failed",
			"fields": verr.Keys(),
		})
	case errors.Is(err, service.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrOrderNotFound), errors.Is(err, service.ErrCartNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConfirmationRequired):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal error",
			"details": err.Error(),
		})
	}
}

func badRequest(c *gin.Context, msg string, err error) {
	body := gin.H{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
