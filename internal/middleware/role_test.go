package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roleRequest(role interface{}) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}
	return c, rec
}

func TestRequireRole_AllowsListedRole(t *testing.T) {
	mw := RequireRole("ADMIN", "FLEET_MANAGER")
	called := false
	next := func(c echo.Context) error { called = true; return c.NoContent(http.StatusOK) }

	c, rec := roleRequest("FLEET_MANAGER")
	require.NoError(t, mw(next)(c))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_RejectsOtherRole(t *testing.T) {
	mw := RequireRole("ADMIN")
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	c, rec := roleRequest("DRIVER")
	require.NoError(t, mw(next)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole_RejectsMissingRole(t *testing.T) {
	mw := RequireRole("ADMIN")
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	c, rec := roleRequest(nil)
	require.NoError(t, mw(next)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Non-string claim values are rejected the same way.
	c, rec = roleRequest(42)
	require.NoError(t, mw(next)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCurrentUserID_Representations(t *testing.T) {
	e := echo.New()
	mk := func(v interface{}) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if v != nil {
			c.Set("user_id", v)
		}
		return c
	}

	assert.Equal(t, "7", currentUserID(mk(float64(7))), "JWT numbers decode as float64")
	assert.Equal(t, "7", currentUserID(mk(uint64(7))))
	assert.Equal(t, "7", currentUserID(mk("7")))
	assert.Equal(t, "anon", currentUserID(mk(nil)))
}
