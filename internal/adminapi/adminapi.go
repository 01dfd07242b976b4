// Package adminapi implements the /api handlers: product CRUD over the
// repository layer and the admin credential check. Every response uses
// the {success, ...} envelope.
package adminapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/openkiosk/catalogd/internal/domain"
	"github.com/openkiosk/catalogd/internal/mediastore"
	"github.com/openkiosk/catalogd/internal/repository"
)

// API holds the handler dependencies, constructed once at startup and
// passed in by reference.
type API struct {
	products repository.ProductRepository
	admins   repository.AdminRepository
	media    *mediastore.MediaStore
}

func New(products repository.ProductRepository, admins repository.AdminRepository, media *mediastore.MediaStore) *API {
	return &API{products: products, admins: admins, media: media}
}

// RegisterRoutes attaches all API handlers to the /api group
func (api *API) RegisterRoutes(g *echo.Group) {
	g.GET("/products", api.listProducts)
	g.GET("/products/:id", api.getProduct)
	g.POST("/products", api.createProduct)
	g.PUT("/products/:id", api.updateProduct)
	g.DELETE("/products/:id", api.deleteProduct)
	g.POST("/admin/login", api.adminLogin)
}

type productResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Product *domain.Product `json:"product"`
}

type productListResponse struct {
	Success  bool             `json:"success"`
	Products []domain.Product `json:"products"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func ok(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: message})
}

func okProduct(c echo.Context, message string, p *domain.Product) error {
	return c.JSON(http.StatusOK, productResponse{Success: true, Message: message, Product: p})
}

func okProducts(c echo.Context, rows []domain.Product) error {
	if rows == nil {
		rows = []domain.Product{}
	}
	return c.JSON(http.StatusOK, productListResponse{Success: true, Products: rows})
}

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, errorResponse{Success: false, Code: code, Message: message})
}

// failFromErr maps repository and media store errors to HTTP statuses.
// Everything unrecognized collapses to a generic 500; the underlying
// error is logged, never returned to the client.
func failFromErr(c echo.Context, err error, subject string) error {
	switch {
	case errors.Is(err, repository.ErrValidation):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", subject+" not found")
	case errors.Is(err, mediastore.ErrInvalidType), errors.Is(err, mediastore.ErrTooLarge):
		return fail(c, http.StatusBadRequest, "INVALID_UPLOAD", err.Error())
	default:
		zap.L().Error("request failed",
			zap.String("uri", c.Request().RequestURI), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "SERVER_ERROR", "internal server error")
	}
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
