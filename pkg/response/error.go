package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/expansio/backend/pkg/errs"
)

// Error maps a classified error to its HTTP status. Unclassified errors are
// reported as the fallback internal message; callers log them before calling.
func Error(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		Forbidden(c, err.Error())
	case errors.Is(err, errs.ErrConflict):
		Conflict(c, err.Error())
	case errors.Is(err, errs.ErrInvalidInput):
		BadRequest(c, err.Error())
	default:
		Internal(c, fallback)
	}
}
