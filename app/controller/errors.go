package controller

import (
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/dto"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// NewHTTPErrorHandler renders errors that escaped a handler, including
// recovered panics. Framework errors (404 route, 405, bind failures) keep
// their status; everything else becomes a 500. Error text is only exposed
// outside production.
func NewHTTPErrorHandler(exposeDetails bool) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			body := dto.ErrorResponse{Error: http.StatusText(he.Code)}
			if msg, ok := he.Message.(string); ok && msg != "" {
				body.Error = msg
			}
			if exposeDetails && he.Internal != nil {
				body.Details = he.Internal.Error()
			}
			writeError(ctx, he.Code, body)
			return
		}

		logrus.WithError(err).WithFields(logrus.Fields{
			"method": ctx.Request().Method,
			"path":   ctx.Path(),
		}).Error("Unhandled error")

		body := dto.ErrorResponse{Error: "internal server error"}
		if exposeDetails {
			body.Details = err.Error()
		}
		writeError(ctx, http.StatusInternalServerError, body)
	}
}

func writeError(ctx echo.Context, code int, body dto.ErrorResponse) {
	var err error
	if ctx.Request().Method == http.MethodHead {
		err = ctx.NoContent(code)
	} else {
		err = ctx.JSON(code, body)
	}
	if err != nil {
		logrus.WithError(err).Error("Failed to write error response")
	}
}
