package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hbomb79/Snag/internal/download"
	"github.com/hbomb79/Snag/pkg/logger"
	"github.com/labstack/echo/v4"
)

// GetHTTPErrorHandler returns an echo HTTP error handler which
// understands the download error taxonomy: the error's kind decides
// the response status, and the caller only ever sees the kind's
// stable message in a single-field JSON body. The underlying cause,
// which may contain raw collaborator output, is logged server-side
// only. Unrecognized errors are passed to the fallback handler.
func GetHTTPErrorHandler(fallbackHandler echo.HTTPErrorHandler) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		var downloadErr *download.Error
		if errors.As(err, &downloadErr) {
			severity := logger.WARNING
			if downloadErr.Kind.Status() >= http.StatusInternalServerError {
				severity = logger.ERROR
			}
			log.Emit(severity, "Request failed (%s): %s\n", downloadErr.Kind, downloadErr)

			if jsonErr := ctx.JSON(downloadErr.Kind.Status(), echo.Map{"error": downloadErr.Kind.Message()}); jsonErr == nil {
				return
			}
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			if jsonErr := ctx.JSON(httpErr.Code, echo.Map{"error": fmt.Sprintf("%v", httpErr.Message)}); jsonErr == nil {
				return
			}
		} else {
			log.Emit(logger.ERROR, "Request failure, internal error: %s\n", err)
			if jsonErr := ctx.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"}); jsonErr == nil {
				return
			}
		}

		fallbackHandler(err, ctx)
	}
}
