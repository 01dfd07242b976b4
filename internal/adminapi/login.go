package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// adminLogin checks the supplied credentials against the admin table.
// No session or token is issued; the response is the envelope only.
func (api *API) adminLogin(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "unable to parse login request")
	}
	valid, err := api.admins.Verify(c.Request().Context(), payload.Username, payload.Password)
	if err != nil {
		return failFromErr(c, err, "admin")
	}
	if !valid {
		return fail(c, http.StatusUnauthorized, "AUTH_FAILED", "invalid username or password")
	}
	return ok(c, "login successful")
}
