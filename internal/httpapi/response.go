package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"holder-analytics/internal/analyticsapi"
	"holder-analytics/internal/storage"
)

// Response codes carried in the envelope. 0 means success.
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeNotFound     = 40401
	CodeUpstream     = 50201
	CodeInternal     = 50001
)

// ErrInvalidParam marks request validation failures.
var ErrInvalidParam = errors.New("invalid parameter")

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	RequestID string `json:"request_id"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
}

// decodeErr maps err to an HTTP status, envelope code and message.
func decodeErr(err error) (int, int, string) {
	switch {
	case err == nil:
		return http.StatusOK, CodeOK, "ok"
	case errors.Is(err, ErrInvalidParam):
		return http.StatusBadRequest, CodeInvalidParam, err.Error()
	case analyticsapi.IsUpstream(err):
		return http.StatusBadGateway, CodeUpstream, err.Error()
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, err.Error()
	default:
		return http.StatusInternalServerError, CodeInternal, "internal error"
	}
}

// JSON writes data, or err when non-nil, in the envelope.
func JSON(c *gin.Context, err error, data any) {
	status, code, message := decodeErr(err)
	if err != nil {
		data = nil
		_ = c.Error(err)
	}
	c.JSON(status, APIResponse{
		RequestID: c.GetString(RequestIDKey),
		Code:      code,
		Message:   message,
		Data:      data,
	})
}
