package httpserver

import (
	"errors"
	"net/http"

	"glowloops/internal/domain"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func errorResponse(c *gin.Context, status int, msg string) {
	c.JSON(status, errorBody{Error: msg})
}

// domainErrorStatus maps service errors to a status and client message.
// ok is false for errors that should be logged as internal.
func domainErrorStatus(err error) (status int, body errorBody, ok bool) {
	var invalid *domain.InvalidLineItemError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, errorBody{Error: invalid.Error(), Field: invalid.Field}, true
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "not found"}, true
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, errorBody{Error: "already exists"}, true
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorBody{Error: "unauthenticated"}, true
	}
	return http.StatusInternalServerError, errorBody{Error: "internal error"}, false
}
