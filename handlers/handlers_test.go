package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vickybesra/Order-Execution-Engine/models"
	"github.com/vickybesra/Order-Execution-Engine/repository"
	"github.com/vickybesra/Order-Execution-Engine/service"
)

type fakeStore struct {
	mu     sync.Mutex
	orders map[string]*models.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: make(map[string]*models.Order)}
}

func (f *fakeStore) Put(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeStore) Get(ctx context.Context, orderID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) GetArchived(ctx context.Context, orderID string) (*models.Order, error) {
	return nil, repository.ErrOrderNotFound
}

func (f *fakeStore) ListActive(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.orders {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeQueue struct {
	mu       sync.Mutex
	enqueued []string
}

func (f *fakeQueue) Enqueue(orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, orderID)
}

func newTestRouter() (*gin.Engine, *fakeStore, *fakeQueue, *service.Broadcaster) {
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	queue := &fakeQueue{}
	broadcaster := service.NewBroadcaster()
	orderSrv := service.NewOrderService(store, queue)
	handler := NewOrderHandler(orderSrv, broadcaster)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/orders", handler.PlaceOrder)
	api.GET("/orders", handler.ListActiveOrders)
	api.GET("/orders/:id", handler.GetOrderStatus)
	api.GET("/orders/:id/stream", handler.StreamOrderStatus)
	api.GET("/health", handler.Health)

	return router, store, queue, broadcaster
}

func TestPlaceOrderAccepted(t *testing.T) {
	router, store, queue, _ := newTestRouter()

	body, _ := json.Marshal(models.PlaceOrderRequest{
		TokenIn:  "SOL",
		TokenOut: "USDC",
		Amount:   10,
		Type:     "market",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp models.PlaceOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.OrderID)
	assert.Equal(t, "pending", resp.Status)

	assert.Equal(t, []string{resp.OrderID}, queue.enqueued)
	_, err := store.Get(context.Background(), resp.OrderID)
	assert.NoError(t, err, "initial snapshot must be persisted before enqueue")
}

func TestPlaceOrderValidation(t *testing.T) {
	router, _, queue, _ := newTestRouter()

	tests := []struct {
		name    string
		request models.PlaceOrderRequest
		fields  []string
	}{
		{
			name:    "missing tokens",
			request: models.PlaceOrderRequest{Amount: 10, Type: "market"},
			fields:  []string{"TokenIn", "TokenOut"},
		},
		{
			name:    "non-positive amount",
			request: models.PlaceOrderRequest{TokenIn: "SOL", TokenOut: "USDC", Amount: 0, Type: "market"},
			fields:  []string{"Amount"},
		},
		{
			name:    "same token on both sides",
			request: models.PlaceOrderRequest{TokenIn: "SOL", TokenOut: "SOL", Amount: 10, Type: "market"},
			fields:  []string{"TokenOut"},
		},
		{
			name:    "unknown order type",
			request: models.PlaceOrderRequest{TokenIn: "SOL", TokenOut: "USDC", Amount: 10, Type: "stop"},
			fields:  []string{"Type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.request)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp struct {
				ValidationErrors map[string]string `json:"validation_errors"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			for _, field := range tt.fields {
				assert.Contains(t, resp.ValidationErrors, field)
			}
		})
	}

	assert.Empty(t, queue.enqueued, "rejected submissions never reach the pipeline")
}

func TestGetOrderStatusNotFound(t *testing.T) {
	router, _, _, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orders/no-such-order", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	router, _, _, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["time"])
}
