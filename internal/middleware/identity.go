package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated staff id for use in keys.  It
// returns "anon" before JWTAuth has run or when no user is present.
func currentUserID(c echo.Context) string {
	switch v := c.Get(CtxUserID).(type) {
	case uint64:
		return strconv.FormatUint(v, 10)
	case string:
		if v != "" {
			return v
		}
	}
	return "anon"
}
