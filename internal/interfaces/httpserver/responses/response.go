package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"search-hub/internal/domain/search"
)

// ErrorResponse is the wire shape of every error the hub returns.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SearchResponse wraps the results of one provider search.
type SearchResponse struct {
	Provider string          `json:"provider"`
	Results  []search.Result `json:"results"`
}

// HandleError maps a search error onto its HTTP status and aborts the
// request. Errors without a taxonomy kind answer 500.
func HandleError(reqCtx *gin.Context, err error) {
	var se *search.Error
	if errors.As(err, &se) {
		reqCtx.AbortWithStatusJSON(search.HTTPStatus(err), ErrorResponse{
			Kind:    string(se.Kind),
			Message: se.Message,
		})
		return
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Kind:    "internal",
		Message: err.Error(),
	})
}

// HandleValidationError answers 400 for malformed request payloads.
func HandleValidationError(reqCtx *gin.Context, message string) {
	reqCtx.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Kind:    "validation",
		Message: message,
	})
}
