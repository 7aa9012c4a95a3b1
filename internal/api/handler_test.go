package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shanti-orders/internal/broker"
	"shanti-orders/internal/interpreter"
	"shanti-orders/internal/service"
	"shanti-orders/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAI struct{}

func (stubAI) Interpret(context.Context, string) ([]interpreter.InterpretedItem, error) {
	return []interpreter.InterpretedItem{
		{Name: "Napa", Price: decimal.NewFromInt(2), Category: "Tablet", Quantity: 10},
	}, nil
}

func (stubAI) Suggest(context.Context, string) (*interpreter.Suggestions, error) {
	return &interpreter.Suggestions{
		Medicines:  []interpreter.Suggestion{{Name: "Napa", Description: "fever", Category: "Tablet"}},
		Disclaimer: "consult a doctor",
	}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewStore(store.NewMemoryBackend(), "shanti_orders")
	locker := service.NewLocalLocker()
	pub := broker.NopPublisher{}
	orders := service.NewOrderService(st, pub, locker, 200)
	admin := service.NewAdminService(st, pub, service.BusinessIdentity{Name: "Shanti Medicare"})
	notes := interpreter.NewNoteService(stubAI{}, locker, time.Second)

	h := NewHandler(service.NewCartRegistry(orders), admin, notes, Storefront{
		Business:       service.BusinessIdentity{Name: "Shanti Medicare"},
		PaymentPhone:   "01700000000",
		MinOrderAmount: 200,
		MaxImageBytes:  1 << 20,
	})

	router := gin.New()
	h.SetupRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func checkoutBody(distance string) map[string]any {
	return map[string]any{
		"delivery_address":  "Sardarpara Bazar",
		"distance":          distance,
		"payment_method":    "bkash",
		"sender_number":     "01700000000",
		"last_three_digits": "123",
	}
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])

	w, _ = doJSON(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCartCheckoutAndAdminLifecycle(t *testing.T) {
	router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/api/v1/carts", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	cartID := body["cart_id"].(string)
	base := "/api/v1/carts/" + cartID

	w, body = doJSON(t, router, http.MethodPost, base+"/items", map[string]any{
		"medicine": map[string]any{"name": "X", "category": "Tablet", "price": 100},
		"quantity": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["eligible"])

	w, body = doJSON(t, router, http.MethodPost, base+"/checkout", checkoutBody("1-2"))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []any{"medicineTotal"}, body["fields"])

	w, _ = doJSON(t, router, http.MethodPatch, base+"/items/x", map[string]any{"delta": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = doJSON(t, router, http.MethodGet, base+"?distance=4-5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	totals := body["totals"].(map[string]any)
	assert.Equal(t, float64(200), totals["medicine_total"])
	assert.Equal(t, float64(40), totals["delivery_charge"])
	assert.Equal(t, float64(240), totals["grand_total"])

	w, body = doJSON(t, router, http.MethodPost, base+"/checkout", checkoutBody("4-5"))
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := body["id"].(string)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "cart", body["type"])
	assert.Equal(t, float64(40), body["deliveryCharge"])

	w, body = doJSON(t, router, http.MethodGet, "/api/v1/admin/orders?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, body["orders"], 1)

	w, body = doJSON(t, router, http.MethodGet, "/api/v1/admin/orders/counts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["pending"])
	assert.Equal(t, float64(0), body["cancelled"])

	orderPath := "/api/v1/admin/orders/" + orderID
	w, _ = doJSON(t, router, http.MethodPost, orderPath+"/status", map[string]any{"status": "delivered"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = doJSON(t, router, http.MethodPost, orderPath+"/status", map[string]any{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "confirmed", body["status"])

	w, body = doJSON(t, router, http.MethodGet, orderPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, orderID, body["order"].(map[string]any)["id"])
	assert.Equal(t, false, body["terminal"])
	assert.Equal(t, []any{"delivered", "cancelled"}, body["next_statuses"])

	w, body = doJSON(t, router, http.MethodGet, orderPath+"/invoice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(240), body["grand_total"])

	w, _ = doJSON(t, router, http.MethodPost, orderPath+"/status", map[string]any{"status": "cancelled"})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = doJSON(t, router, http.MethodGet, orderPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["terminal"])
	assert.Equal(t, []any{}, body["next_statuses"])

	w, _ = doJSON(t, router, http.MethodDelete, orderPath, nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	w, _ = doJSON(t, router, http.MethodDelete, orderPath+"?confirm=true", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, orderPath, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClearCart(t *testing.T) {
	router := newTestRouter(t)

	_, body := doJSON(t, router, http.MethodPost, "/api/v1/carts", nil)
	base := "/api/v1/carts/" + body["cart_id"].(string)

	w, _ := doJSON(t, router, http.MethodPost, base+"/items", map[string]any{
		"medicine": map[string]any{"name": "X", "category": "Tablet", "price": 100},
		"quantity": 3,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = doJSON(t, router, http.MethodDelete, base+"/items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["items"])
}

func TestUnknownCart(t *testing.T) {
	router := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodGet, "/api/v1/carts/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvalidStatusFilter(t *testing.T) {
	router := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodGet, "/api/v1/admin/orders?status=shipped", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInterpretAddsToCart(t *testing.T) {
	router := newTestRouter(t)

	_, body := doJSON(t, router, http.MethodPost, "/api/v1/carts", nil)
	base := "/api/v1/carts/" + body["cart_id"].(string)

	w, body := doJSON(t, router, http.MethodPost, base+"/interpret", map[string]any{"note": "napa 10ta", "add": true})
	require.Equal(t, http.StatusOK, w.Code)
	result := body["result"].(map[string]any)
	assert.Equal(t, "ok", result["outcome"])

	cart := body["cart"].(map[string]any)
	items := cart["items"].([]any)
	require.Len(t, items, 1)
	line := items[0].(map[string]any)
	assert.Equal(t, float64(10), line["quantity"])
	assert.Equal(t, "AI detected", line["medicine"].(map[string]any)["description"])

	w, body = doJSON(t, router, http.MethodPost, base+"/interpret", map[string]any{"note": " "})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []any{"note"}, body["fields"])
}

func TestSuggestions(t *testing.T) {
	router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/api/v1/suggestions", map[string]any{"query": "fever"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["outcome"])
}

func multipartPrescription(t *testing.T, image []byte, distance, payment string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"delivery_address":  "Sardarpara Bazar",
		"distance":          distance,
		"payment_method":    payment,
		"sender_number":     "01700000000",
		"last_three_digits": "456",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "rx.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/prescriptions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestPrescriptionUpload(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartPrescription(t, pngBytes(t), "3", "nagad"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, "prescription", order["type"])
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, float64(30), order["deliveryCharge"])
	assert.Contains(t, order["imageUrl"], "data:image/png;base64,")
	assert.NotContains(t, order, "items")
}

func TestPrescriptionUploadRejects(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartPrescription(t, []byte("just some text"), "3", "nagad"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, multipartPrescription(t, nil, "3", "cod"))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []any{"image", "paymentMethod"}, body["fields"])
}
