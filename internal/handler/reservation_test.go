package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stock-reservation/internal/handler"
	"github.com/iliyamo/stock-reservation/internal/model"
	"github.com/iliyamo/stock-reservation/internal/repository"
	"github.com/iliyamo/stock-reservation/internal/router"
	"github.com/iliyamo/stock-reservation/internal/service"
)

// Minimal in-memory stores; the concurrency-sensitive behavior is
// covered in the service tests, these only back the HTTP layer.
type stubStock struct {
	mu       sync.Mutex
	products map[uint64]*model.Product
}

func (s *stubStock) GetByID(_ context.Context, id uint64) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubStock) ListAll(_ context.Context) ([]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubStock) DecrementStock(_ context.Context, id uint64, qty int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.AvailableStock < qty {
		return false, nil
	}
	p.AvailableStock -= qty
	return true, nil
}

func (s *stubStock) IncrementStock(_ context.Context, id uint64, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		p.AvailableStock += qty
	}
	return nil
}

type stubReservations struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]*model.Reservation
	stock  *stubStock
}

func (s *stubReservations) Create(_ context.Context, productID uint64, qty int, expiresAt time.Time) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.rows[s.nextID] = &model.Reservation{
		ID: s.nextID, ProductID: productID, Quantity: qty,
		Status: model.ReservationStatusActive, CreatedAt: time.Now().UTC(), ExpiresAt: expiresAt,
	}
	return s.nextID, nil
}

func (s *stubReservations) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	s.mu.Lock()
	row, ok := s.rows[id]
	if !ok {
		s.mu.Unlock()
		return nil, repository.ErrReservationNotFound
	}
	cp := *row
	s.mu.Unlock()
	if p, err := s.stock.GetByID(ctx, cp.ProductID); err == nil {
		cp.Product = p
	}
	return &cp, nil
}

func (s *stubReservations) ListAll(_ context.Context) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Reservation, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *stubReservations) ListActive(_ context.Context) ([]model.Reservation, error) {
	return nil, nil
}

func (s *stubReservations) MarkCompleted(_ context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || row.Status != model.ReservationStatusActive {
		return false, nil
	}
	row.Status = model.ReservationStatusCompleted
	return true, nil
}

func (s *stubReservations) ExpireAndRestock(ctx context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return false, repository.ErrReservationNotFound
	}
	if row.Status != model.ReservationStatusActive {
		return false, nil
	}
	row.Status = model.ReservationStatusExpired
	return true, s.stock.IncrementStock(ctx, row.ProductID, row.Quantity)
}

type noopScheduler struct{}

func (noopScheduler) Schedule(context.Context, uint64, time.Duration) error { return nil }

func passthrough(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error { return next(c) }
}

func newServer(stock int) (*echo.Echo, *service.ReservationService) {
	stockStore := &stubStock{products: map[uint64]*model.Product{
		1: {ID: 1, Name: "Console", Price: 499.99, AvailableStock: stock},
	}}
	resStore := &stubReservations{rows: make(map[uint64]*model.Reservation), stock: stockStore}
	svc := service.NewReservationService(stockStore, resStore, noopScheduler{}, time.Minute)

	e := echo.New()
	router.RegisterRoutes(e, handler.NewProductHandler(svc), handler.NewReservationHandler(svc), passthrough, passthrough)
	return e, svc
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateReservation(t *testing.T) {
	e, _ := newServer(5)

	rec := doJSON(e, http.MethodPost, "/v1/reservations", `{"product_id":1,"quantity":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, model.ReservationStatusActive, res.Status)
	require.Equal(t, 2, res.Quantity)
	require.NotNil(t, res.Product)
	require.Equal(t, 3, res.Product.AvailableStock)
}

func TestCreateReservationErrors(t *testing.T) {
	e, _ := newServer(5)

	cases := []struct {
		name string
		body string
		code int
	}{
		{"unknown product", `{"product_id":99,"quantity":1}`, http.StatusNotFound},
		{"zero quantity", `{"product_id":1,"quantity":0}`, http.StatusBadRequest},
		{"negative quantity", `{"product_id":1,"quantity":-1}`, http.StatusBadRequest},
		{"exceeds stock", `{"product_id":1,"quantity":6}`, http.StatusBadRequest},
		{"missing product id", `{"quantity":1}`, http.StatusBadRequest},
		{"malformed body", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/v1/reservations", tc.body)
			require.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestCompleteReservation(t *testing.T) {
	e, svc := newServer(5)

	res, err := svc.Reserve(context.Background(), 1, 2)
	require.NoError(t, err)

	path := fmt.Sprintf("/v1/reservations/%d/complete", res.ID)
	rec := doJSON(e, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var done model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &done))
	require.Equal(t, model.ReservationStatusCompleted, done.Status)

	// Completing again succeeds idempotently.
	rec = doJSON(e, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCompleteExpiredReservation(t *testing.T) {
	e, svc := newServer(5)

	res, err := svc.Reserve(context.Background(), 1, 2)
	require.NoError(t, err)
	require.NoError(t, svc.ExpireReservation(context.Background(), res.ID))

	rec := doJSON(e, http.MethodPost, fmt.Sprintf("/v1/reservations/%d/complete", res.ID), "")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCompleteReservationNotFound(t *testing.T) {
	e, _ := newServer(5)
	rec := doJSON(e, http.MethodPost, "/v1/reservations/42/complete", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodPost, "/v1/reservations/abc/complete", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAndListReservations(t *testing.T) {
	e, svc := newServer(5)

	rec := doJSON(e, http.MethodGet, "/v1/reservations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	res, err := svc.Reserve(context.Background(), 1, 1)
	require.NoError(t, err)

	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/v1/reservations/%d", res.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/v1/reservations/999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodGet, "/v1/reservations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)
}

func TestListProducts(t *testing.T) {
	e, _ := newServer(5)

	rec := doJSON(e, http.MethodGet, "/v1/products", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var products []model.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 1)
	require.Equal(t, "Console", products[0].Name)
}

func TestHealthz(t *testing.T) {
	e, _ := newServer(1)
	rec := doJSON(e, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}
