package handler

import (
	"net/http" // HTTP status codes

	"github.com/iliyamo/stock-reservation/internal/model"   // API shapes
	"github.com/iliyamo/stock-reservation/internal/service" // leasing coordinator
	"github.com/labstack/echo/v4"                           // Echo web framework
)

// ProductHandler exposes the read-only product catalogue.
type ProductHandler struct {
	svc *service.ReservationService
}

// NewProductHandler constructs a ProductHandler.  The service must be
// non-nil.
func NewProductHandler(svc *service.ReservationService) *ProductHandler {
	if svc == nil {
		panic("nil service passed to NewProductHandler")
	}
	return &ProductHandler{svc: svc}
}

// List handles GET /v1/products.  Products are returned ordered by
// identifier ascending with their live available stock.
func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.svc.ListProducts(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if products == nil {
		products = []model.Product{}
	}
	return c.JSON(http.StatusOK, products)
}
