package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxClaims extracts the token claims injected by the Auth middleware and
// performs a fast-fail check before any service call: a non-empty record id
// proves the middleware ran.
func ctxClaims(c echo.Context) (recordID, agentID string, isCEO bool, err error) {
	recordID, _ = c.Get("sub").(string)
	if recordID == "" {
		return "", "", false, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	agentID, _ = c.Get("agent_id").(string)
	isCEO, _ = c.Get("is_ceo").(bool)
	return recordID, agentID, isCEO, nil
}
