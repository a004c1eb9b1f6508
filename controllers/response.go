package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gbd-solar/solartech-api/middleware"
	"github.com/gbd-solar/solartech-api/policy"
	"github.com/gbd-solar/solartech-api/services"
	"github.com/gin-gonic/gin"
)

var statusByKind = map[services.ErrorKind]int{
	services.KindUnauthenticated:   http.StatusUnauthorized,
	services.KindInvalidCredential: http.StatusUnauthorized,
	services.KindPermissionDenied:  http.StatusForbidden,
	services.KindNotFound:          http.StatusNotFound,
	services.KindInvalidInput:      http.StatusBadRequest,
	services.KindConflict:          http.StatusConflict,
	services.KindInternal:          http.StatusInternalServerError,
}

var defaultCodeByKind = map[services.ErrorKind]string{
	services.KindUnauthenticated:   "UNAUTHENTICATED",
	services.KindInvalidCredential: "INVALID_CREDENTIAL",
	services.KindPermissionDenied:  "FORBIDDEN",
	services.KindNotFound:          "NOT_FOUND",
	services.KindInvalidInput:      "VALIDATION_ERROR",
	services.KindConflict:          "CONFLICT",
	services.KindInternal:          "INTERNAL_ERROR",
}

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondFailure(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondError writes err in the error envelope, choosing the status from its kind.
// Internal details are logged, never returned.
func respondError(c *gin.Context, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		svcErr = &services.Error{Kind: services.KindInternal, Message: "internal error", Err: err}
	}

	code := svcErr.Code
	if code == "" {
		code = defaultCodeByKind[svcErr.Kind]
	}
	message := svcErr.Message
	if svcErr.Kind == services.KindInternal {
		slog.ErrorContext(c.Request.Context(), "request failed", "route", c.FullPath(), "error", err)
		message = "An internal error occurred"
	}

	respondFailure(c, statusByKind[svcErr.Kind], code, message)
}

func respondBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// currentIdentity returns the caller, answering 401 when the context has none.
func currentIdentity(c *gin.Context) (policy.Identity, bool) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Could not extract caller identity")
		return policy.Identity{}, false
	}
	return identity, true
}

// pathID parses a positive numeric path parameter, answering 400 otherwise.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondFailure(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// queryID parses an optional numeric query parameter.
func queryID(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondFailure(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return nil, false
	}
	v := uint(id)
	return &v, true
}
