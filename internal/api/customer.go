package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"shanti-orders/internal/imaging"
	"shanti-orders/internal/interpreter"
	"shanti-orders/internal/models"
	"shanti-orders/internal/service"

	"github.com/gin-gonic/gin"
)

type cartView struct {
	CartID         string            `json:"cart_id"`
	Items          []models.CartItem `json:"items"`
	Totals         models.Totals     `json:"totals"`
	Eligible       bool              `json:"eligible"`
	MinOrderAmount int64             `json:"min_order_amount"`
}

func (h *Handler) viewCart(cart *service.CartComposer, distance models.Distance) cartView {
	return cartView{
		CartID:         cart.ID(),
		Items:          cart.Items(),
		Totals:         cart.ComputeTotals(distance),
		Eligible:       cart.Eligible(),
		MinOrderAmount: h.storefront.MinOrderAmount,
	}
}

func (h *Handler) cart(c *gin.Context) (*service.CartComposer, bool) {
	cart, err := h.carts.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return cart, true
}

func (h *Handler) createCart(c *gin.Context) {
	cart := h.carts.Create()
	c.JSON(http.StatusCreated, gin.H{"cart_id": cart.ID()})
}

// getCart returns the cart lines and totals for ?distance=
func (h *Handler) getCart(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.viewCart(cart, models.Distance(c.Query("distance"))))
}

func (h *Handler) dropCart(c *gin.Context) {
	h.carts.Drop(c.Param("id"))
	c.Status(http.StatusNoContent)
}

type addItemsRequest struct {
	Medicine *models.Medicine  `json:"medicine"`
	Quantity int               `json:"quantity"`
	Items    []models.CartItem `json:"items"`
}

// addItems accepts either one medicine with a quantity or a batch of items
func (h *Handler) addItems(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}

	var req addItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	switch {
	case len(req.Items) > 0:
		cart.AddMultiple(req.Items)
	case req.Medicine != nil && req.Medicine.Name != "":
		cart.AddItem(*req.Medicine, req.Quantity)
	default:
		badRequest(c, "Nothing to add", nil)
		return
	}

	c.JSON(http.StatusOK, h.viewCart(cart, ""))
}

type updateQuantityRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) updateQuantity(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}

	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	cart.UpdateQuantity(c.Param("name"), req.Delta)
	c.JSON(http.StatusOK, h.viewCart(cart, ""))
}

func (h *Handler) removeItem(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}
	cart.RemoveItem(c.Param("name"))
	c.JSON(http.StatusOK, h.viewCart(cart, ""))
}

func (h *Handler) clearCart(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}
	cart.Clear()
	c.JSON(http.StatusOK, h.viewCart(cart, ""))
}

func (h *Handler) checkout(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}

	var details service.CheckoutDetails
	if err := c.ShouldBindJSON(&details); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	order, err := cart.Submit(c.Request.Context(), details)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

type interpretRequest struct {
	Note string `json:"note"`
	Add  bool   `json:"add"`
}

// interpretNote reads a free-text medicine list. With add set, a
// successful reading is merged into the cart.
func (h *Handler) interpretNote(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}

	var req interpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	result, err := h.notes.Interpret(c.Request.Context(), cart.ID(), req.Note)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if req.Add && result.Outcome == interpreter.OutcomeOK {
		cart.AddMultiple(interpreter.ToCartItems(result.Items))
	}

	c.JSON(http.StatusOK, gin.H{
		"result": result,
		"cart":   h.viewCart(cart, ""),
	})
}

type suggestRequest struct {
	Query  string `json:"query"`
	CartID string `json:"cart_id"`
}

func (h *Handler) suggest(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	composer := req.CartID
	if composer == "" {
		composer = c.ClientIP()
	}

	result, err := h.notes.Suggest(c.Request.Context(), composer, req.Query)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// uploadPrescription takes a multipart "image" file plus checkout fields
func (h *Handler) uploadPrescription(c *gin.Context) {
	var details service.CheckoutDetails
	if err := c.ShouldBind(&details); err != nil {
		badRequest(c, "Invalid form", err)
		return
	}

	composer := h.carts.NewPrescription()

	if fh, err := c.FormFile("image"); err == nil {
		dataURL, err := readImage(fh, h.storefront.MaxImageBytes)
		if err != nil {
			if errors.Is(err, imaging.ErrEmpty) || errors.Is(err, imaging.ErrNotImage) || errors.Is(err, imaging.ErrTooLarge) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{
					"error":   "Validation failed",
					"fields":  []string{service.FieldImage},
					"details": err.Error(),
				})
				return
			}
			h.writeError(c, err)
			return
		}
		composer.SetImage(dataURL)
	}

	order, err := composer.Submit(c.Request.Context(), details)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func readImage(fh *multipart.FileHeader, maxBytes int64) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	r := io.Reader(f)
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	return imaging.ToDataURL(data, maxBytes)
}
