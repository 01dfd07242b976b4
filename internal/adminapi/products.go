package adminapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/openkiosk/catalogd/internal/mediastore"
	"github.com/openkiosk/catalogd/internal/repository"
)

func (api *API) listProducts(c echo.Context) error {
	rows, err := api.products.ListAll(c.Request().Context())
	if err != nil {
		return failFromErr(c, err, "products")
	}
	return okProducts(c, rows)
}

func (api *API) getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "invalid product ID")
	}
	p, err := api.products.GetByID(c.Request().Context(), id)
	if err != nil {
		return failFromErr(c, err, "product")
	}
	return c.JSON(http.StatusOK, productResponse{Success: true, Product: p})
}

func (api *API) createProduct(c echo.Context) error {
	name := strings.TrimSpace(c.FormValue("name"))
	description := strings.TrimSpace(c.FormValue("description"))
	price := strings.TrimSpace(c.FormValue("price"))
	icon := strings.TrimSpace(c.FormValue("icon"))

	if name == "" || description == "" || price == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "name, description and price are required")
	}

	imageName := ""
	if up := formUpload(c); up != nil {
		stored, err := api.media.Store(*up)
		if err != nil {
			return failFromErr(c, err, "product")
		}
		imageName = stored
	}

	p, err := api.products.Create(c.Request().Context(), repository.ProductCreate{
		Name:        name,
		Description: description,
		Price:       price,
		Icon:        icon,
		Image:       imageName,
	})
	if err != nil {
		return failFromErr(c, err, "product")
	}
	return okProduct(c, "product created", p)
}

func (api *API) updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "invalid product ID")
	}

	name := strings.TrimSpace(c.FormValue("name"))
	description := strings.TrimSpace(c.FormValue("description"))
	price := strings.TrimSpace(c.FormValue("price"))
	icon := strings.TrimSpace(c.FormValue("icon"))

	if name == "" || description == "" || price == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "name, description and price are required")
	}

	p, err := api.products.Update(c.Request().Context(), id, repository.ProductUpdate{
		Name:        name,
		Description: description,
		Price:       price,
		Icon:        icon,
		NewImage:    formUpload(c),
	})
	if err != nil {
		return failFromErr(c, err, "product")
	}
	return okProduct(c, "product updated", p)
}

func (api *API) deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "invalid product ID")
	}
	if err := api.products.Delete(c.Request().Context(), id); err != nil {
		return failFromErr(c, err, "product")
	}
	return ok(c, "product deleted")
}

// formUpload reads the optional "image" file field. A missing field,
// a non-multipart request or an unreadable part all count as "no file";
// validation of what was read happens in the media store.
func formUpload(c echo.Context) *mediastore.Upload {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil
	}
	defer f.Close()

	// read one byte past the cap so the media store can reject oversize
	// uploads without buffering arbitrarily large bodies
	data, err := io.ReadAll(io.LimitReader(f, mediastore.MaxUploadSize+1))
	if err != nil {
		return nil
	}
	return &mediastore.Upload{
		Data:        data,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
	}
}
