package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/contactbook/internal/contacts"
	"github.com/memohai/contactbook/internal/logger"
	"github.com/memohai/contactbook/internal/views"
)

// internalErrorBody is all a client learns about a server-side failure.
const internalErrorBody = "Something went wrong..."

// statusClientClosedRequest is nginx's code for a request the client abandoned.
const statusClientClosedRequest = 499

// ErrorHandler turns handler errors into responses. Store and render failures are
// logged in full and answered with a bare 500; HTTP errors keep their status.
type ErrorHandler struct {
	logger *slog.Logger
	// TransientUnavailable answers transient store failures with 503 and Retry-After.
	TransientUnavailable bool
}

func NewErrorHandler(log *slog.Logger, transientUnavailable bool) *ErrorHandler {
	return &ErrorHandler{
		logger:               log.With(slog.String("component", "errors")),
		TransientUnavailable: transientUnavailable,
	}
}

// Handle implements echo.HTTPErrorHandler.
func (h *ErrorHandler) Handle(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	log := logger.FromContext(c.Request().Context())
	if log == logger.L {
		log = h.logger
	}

	var (
		httpErr   *echo.HTTPError
		storeErr  *contacts.StoreError
		renderErr *views.RenderError
	)
	switch {
	case errors.As(err, &httpErr):
		h.handleHTTPError(c, httpErr)
		return
	case errors.As(err, &storeErr) && storeErr.Kind == contacts.Canceled:
		log.Debug("request canceled", slog.String("op", storeErr.Op), slog.Any("error", storeErr.Err))
		h.write(c, statusClientClosedRequest, "")
		return
	case errors.As(err, &storeErr):
		log.Error("store error",
			slog.String("op", storeErr.Op),
			slog.String("kind", storeErr.Kind.String()),
			slog.Any("error", storeErr.Err),
		)
		if h.TransientUnavailable && storeErr.Temporary() {
			c.Response().Header().Set("Retry-After", "1")
			h.write(c, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable))
			return
		}
	case errors.As(err, &renderErr):
		log.Error("render error",
			slog.String("template", renderErr.Name),
			slog.String("op", renderErr.Op),
			slog.Any("error", renderErr.Err),
		)
	default:
		log.Error("request failed", slog.Any("error", err))
	}
	h.write(c, http.StatusInternalServerError, internalErrorBody)
}

func (h *ErrorHandler) handleHTTPError(c echo.Context, httpErr *echo.HTTPError) {
	if httpErr.Internal != nil {
		h.logger.Debug("http error", slog.Int("status", httpErr.Code), slog.Any("error", httpErr.Internal))
	}
	if httpErr.Code == http.StatusNotFound && c.Request().Method != http.MethodHead {
		if err := c.Render(http.StatusNotFound, notFoundTemplate, nil); err == nil {
			return
		}
	}
	h.write(c, httpErr.Code, http.StatusText(httpErr.Code))
}

func (h *ErrorHandler) write(c echo.Context, status int, body string) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.String(status, body)
	}
	if err != nil {
		h.logger.Error("write error response", slog.Any("error", err))
	}
}
