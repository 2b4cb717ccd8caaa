package client

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/agileclient/internal/common"
)

// decodeError reports a result the client could not make sense of.
func decodeError(err error, format string, args ...any) error {
	return &common.APIError{
		Code: common.CodeUnknownError,
		Msg:  fmt.Sprintf(format, args...),
		Err:  err,
	}
}

// statusError reports a 2xx upload answer whose decoded status is not success.
func statusError(code int, format string, args ...any) error {
	e := common.NewAPIError(code, format, args...)
	e.HTTPStatus = http.StatusOK
	return e
}
