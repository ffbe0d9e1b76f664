package api

import (
	"errors"
	"net/http"

	"ledger/config"
	"ledger/filter"
	"ledger/middleware"

	"github.com/gin-gonic/gin"
)

// ErrorKind classifies a failed request.
type ErrorKind string

const (
	KindMissingParameter        ErrorKind = "MissingParameter"
	KindEmptyParameter          ErrorKind = "EmptyParameter"
	KindInvalidParameter        ErrorKind = "InvalidParameter"
	KindInvalidEmailFormat      ErrorKind = "InvalidEmailFormat"
	KindDuplicateUser           ErrorKind = "DuplicateUser"
	KindAlreadyExists           ErrorKind = "AlreadyExists"
	KindWrongCredentials        ErrorKind = "WrongCredentials"
	KindNotFound                ErrorKind = "NotFound"
	KindInvalidQueryCombination ErrorKind = "InvalidQueryCombination"
	KindInvalidDateValue        ErrorKind = "InvalidDateValue"
	KindInvalidAmountValue      ErrorKind = "InvalidAmountValue"
	KindUnauthorized            ErrorKind = "Unauthorized"
	KindTokenMalformed          ErrorKind = "TokenMalformed"
	KindSessionExpired          ErrorKind = "SessionExpired"
	KindInternal                ErrorKind = "Internal"
)

// Status maps the kind to its HTTP status code.
func (k ErrorKind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized, KindTokenMalformed, KindSessionExpired:
		return http.StatusUnauthorized
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// Fail writes an error response of kind.
func Fail(c *gin.Context, kind ErrorKind, message string) {
	FailWithData(c, kind, message, nil)
}

// FailWithData writes an error response of kind carrying details.
func FailWithData(c *gin.Context, kind ErrorKind, message string, data interface{}) {
	status := kind.Status()
	c.JSON(status, Response{
		Code:                  status,
		Message:               message,
		Kind:                  kind,
		Data:                  data,
		RefreshedTokenMessage: c.GetString(middleware.RefreshedTokenMessageKey),
	})
}

// FailInternal logs err and answers 500 without leaking details in release mode.
func FailInternal(c *gin.Context, err error, fallback string) {
	middleware.Logger(c).WithError(err).Error(fallback)
	Fail(c, KindInternal, config.SafeErrorMessage(err, fallback))
}

// FailFilter reports a filter builder error.
func FailFilter(c *gin.Context, err error) {
	switch {
	case errors.Is(err, filter.ErrInvalidQueryCombination):
		Fail(c, KindInvalidQueryCombination, err.Error())
	case errors.Is(err, filter.ErrInvalidDateValue):
		Fail(c, KindInvalidDateValue, err.Error())
	case errors.Is(err, filter.ErrInvalidAmountValue):
		Fail(c, KindInvalidAmountValue, err.Error())
	default:
		FailInternal(c, err, "Failed to build filter")
	}
}

// authorize runs the verifier for the first capability that passes and
// reports a denial itself. It returns false when the handler must stop.
func authorize(c *gin.Context, v *middleware.Verifier, capabilities ...middleware.Capability) bool {
	res := middleware.AuthorizeAny(c, v, capabilities...)
	if res.Authorized {
		return true
	}

	middleware.Logger(c).WithField("cause", res.Cause).Info("request denied")
	switch {
	case res.SessionExpired:
		Fail(c, KindSessionExpired, res.Cause)
	case res.Cause == "TokenMalformed":
		Fail(c, KindTokenMalformed, res.Cause)
	default:
		Fail(c, KindUnauthorized, res.Cause)
	}
	return false
}
