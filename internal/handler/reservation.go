package handler

import (
	"errors"   // for errors.Is comparisons
	"net/http" // HTTP status codes
	"strconv"  // parsing path parameters

	"github.com/iliyamo/stock-reservation/internal/model"      // API shapes
	"github.com/iliyamo/stock-reservation/internal/repository" // not-found sentinels
	"github.com/iliyamo/stock-reservation/internal/service"    // leasing coordinator
	"github.com/labstack/echo/v4"                              // Echo web framework
)

// ReservationHandler exposes the leasing operations: taking a lease,
// completing the purchase, and reading reservations back.  Every
// business error from the service maps to a distinct status code so
// clients can tell a bad request from a lost race.
type ReservationHandler struct {
	svc *service.ReservationService
}

// NewReservationHandler constructs a ReservationHandler.  The service
// must be non-nil.
func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{svc: svc}
}

// Create handles POST /v1/reservations.  The request body must contain
// a JSON object with positive "product_id" and "quantity" fields.  On
// success it returns 201 Created with the reservation joined with its
// product.  Insufficient stock at pre-check time is a 400; losing the
// atomic race for the last units is a 409.
func (h *ReservationHandler) Create(c echo.Context) error {
	var body struct {
		ProductID uint64 `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id is required"})
	}

	res, err := h.svc.Reserve(c.Request().Context(), body.ProductID, body.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case errors.Is(err, service.ErrInvalidQuantity), errors.Is(err, service.ErrInsufficientStock):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrStockConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, res)
}

// Complete handles POST /v1/reservations/:id/complete.  Completing an
// already completed reservation succeeds idempotently; completing an
// expired one returns 409.
func (h *ReservationHandler) Complete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	res, err := h.svc.CompletePurchase(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, service.ErrReservationExpired):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, res)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.svc.FindReservation(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, res)
}

// List handles GET /v1/reservations, most recent first.
func (h *ReservationHandler) List(c echo.Context) error {
	reservations, err := h.svc.ListReservations(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	return c.JSON(http.StatusOK, reservations)
}

func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
