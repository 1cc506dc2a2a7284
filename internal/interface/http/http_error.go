package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/disha/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

var statusByCode = map[string]int{
	apperrors.CodeInvalidInput:       http.StatusBadRequest,
	apperrors.CodeNotFound:           http.StatusNotFound,
	apperrors.CodeNotAuthenticated:   http.StatusUnauthorized,
	apperrors.CodeSessionExpired:     http.StatusUnauthorized,
	apperrors.CodeInvalidToken:       http.StatusUnauthorized,
	apperrors.CodeInvalidCredentials: http.StatusUnauthorized,
	apperrors.CodeRefreshInProgress:  http.StatusConflict,
	apperrors.CodeBackend:            http.StatusBadGateway,
	apperrors.CodeWeatherData:        http.StatusBadGateway,
	apperrors.CodeGeocode:            http.StatusBadGateway,
	apperrors.CodeLLM:                http.StatusBadGateway,
	apperrors.CodeStorage:            http.StatusInternalServerError,
}

// fromAppError maps a coded domain error to its transport form.
func fromAppError(err error) *HTTPError {
	code := apperrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		return asHTTPError(err)
	}
	return NewHTTPError(status, code, apperrors.MessageOf(err), err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func badRequest(c *gin.Context, err error) {
	abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, errMessage(err), err))
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
