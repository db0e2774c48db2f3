// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"travellite/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeDomainError maps error kinds to status codes. Anything that is not a
// domain error is logged and reported as 500.
func writeDomainError(c *gin.Context, err error) {
	var de *types.Error
	if !errors.As(err, &de) {
		log.Printf("[HTTP] path=%s err=%v", c.Request.URL.Path, err)
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, statusFor(de.Kind), errorResponse{Error: de.Error(), Kind: string(de.Kind), Field: de.Field})
}

func statusFor(kind types.Kind) int {
	switch kind {
	case types.KindValidation, types.KindInvalidDistance, types.KindInvalidCoordinate:
		return http.StatusBadRequest
	case types.KindNotFound:
		return http.StatusNotFound
	case types.KindForbidden:
		return http.StatusForbidden
	case types.KindInvalidState, types.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(c, http.StatusBadRequest, key+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
