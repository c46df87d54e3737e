// internal/pkg/response/response.go
package response

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	xerrors "insurance-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Response defines the standard API response format.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends a standardized error response.
func Error(c *gin.Context, code int, message string, err error, data ...interface{}) {
	// Abort before writing so later handlers in the chain never run.
	c.Abort()

	resp := Response{
		Success: false,
		Message: message,
	}

	if err != nil {
		resp.Error = err.Error()
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	c.JSON(code, resp)
}

// ValidationError sends a 400 Bad Request response for invalid input.
func ValidationError(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, nil)
}

// Forbidden sends a 403 Forbidden response.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message, nil)
}

// NotFound sends a 404 Not Found response.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, nil)
}

// FromError maps a service error onto a status code. Domain errors keep their
// own text as the message; anything unrecognised becomes a 500 with fallback.
func FromError(c *gin.Context, err error, fallback string) {
	var verr *xerrors.ValidationError
	switch {
	case xerrors.As(err, &verr):
		Error(c, http.StatusUnprocessableEntity, "validation failed", err, verr.Fields)
	case xerrors.Is(err, xerrors.ErrNotFound):
		Error(c, http.StatusNotFound, err.Error(), nil)
	case xerrors.Is(err, xerrors.ErrUnauthorized), xerrors.Is(err, xerrors.ErrSessionExpired):
		Error(c, http.StatusUnauthorized, err.Error(), nil)
	case xerrors.Is(err, xerrors.ErrForbidden):
		Error(c, http.StatusForbidden, err.Error(), nil)
	case xerrors.Is(err, xerrors.ErrConflict), xerrors.Is(err, xerrors.ErrInUse),
		xerrors.Is(err, xerrors.ErrInvalidTransition):
		Error(c, http.StatusConflict, err.Error(), nil)
	case xerrors.Is(err, xerrors.ErrRateLimited):
		Error(c, http.StatusTooManyRequests, err.Error(), nil)
	case xerrors.Is(err, xerrors.ErrFileTooLarge):
		Error(c, http.StatusRequestEntityTooLarge, err.Error(), nil)
	case xerrors.Is(err, xerrors.ErrUnsupportedFileType):
		Error(c, http.StatusUnsupportedMediaType, err.Error(), nil)
	case xerrors.Is(err, xerrors.ErrIneligible), xerrors.Is(err, xerrors.ErrInvalidInput):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	default:
		Error(c, http.StatusInternalServerError, fallback, err)
	}
}

// TotalPages returns how many pages of size hold total rows.
func TotalPages(total int64, size int) int {
	if size < 1 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// File streams a stored blob inline, or as an attachment when the request
// carries ?download=true.
func File(c *gin.Context, name, contentType string, size int64, r io.Reader) {
	disposition := "inline"
	if download, _ := strconv.ParseBool(c.Query("download")); download {
		disposition = "attachment"
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, size, contentType, r, map[string]string{
		"Content-Disposition":    mime.FormatMediaType(disposition, map[string]string{"filename": name}),
		"X-Content-Type-Options": "nosniff",
	})
}
