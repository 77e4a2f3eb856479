package api

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/gin-gonic/gin"
)

const (
	msgUnauthorized  = "Incorrect secret or password"
	msgIntegrity     = "stored secret failed integrity check"
	msgInternal      = "internal error"
	msgInvalidFACode = "Invalid FA code"
	msgNotFound      = "not found"
	msgStoredSeed    = "stored FA seed is unusable"
)

// statusFor maps a service error to a status code and a client-facing
// message. Messages never carry wrapped detail from storage or crypto.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrInvalidSecretFormat):
		return http.StatusBadRequest, msgInvalidFACode
	case errors.Is(err, common.ErrInvalidLogo):
		return http.StatusBadRequest, common.ErrInvalidLogo.Error()
	case errors.Is(err, common.ErrWeakPassword):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusBadRequest, "User with this email already exists"
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrPasswordMismatch):
		return http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, common.ErrNoLogo):
		return http.StatusNotFound, common.ErrNoLogo.Error()
	case errors.Is(err, common.ErrIntegrity), errors.Is(err, common.ErrMalformedToken):
		return http.StatusInternalServerError, msgIntegrity
	case errors.Is(err, common.ErrStoredSeed):
		return http.StatusInternalServerError, msgStoredSeed
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
