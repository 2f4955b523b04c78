package middleware

// identity.go holds helpers shared across middleware files.  It
// provides the user-identifier extraction used by rate-limit key
// construction.  JWTAuth stores the subject claim under "user_id" as
// whatever numeric type the JWT library decoded it to, so several
// representations are accepted here.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// currentUserID returns a string form of the authenticated user's id,
// or "anon" for unauthenticated requests.
func currentUserID(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case string:
        if v != "" {
            return v
        }
    case float64:
        return strconv.FormatUint(uint64(v), 10)
    case uint64:
        return strconv.FormatUint(v, 10)
    case int64:
        return strconv.FormatInt(v, 10)
    }
    return "anon"
}
