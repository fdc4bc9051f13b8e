package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mantamatcher/catalogcore/internal/consolidation"
	"github.com/mantamatcher/catalogcore/internal/errors"
	"github.com/mantamatcher/catalogcore/internal/logger"
)

const (
	reasonBadBody   = "bad_body"
	reasonBadAction = "bad_action"
	reasonBadKind   = "bad_audit_kind"
	reasonInternal  = "internal"
)

// storageMessage is shown instead of driver detail.
const storageMessage = "could not complete, please retry"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Kind          string `json:"kind"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId"`
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(kind consolidation.Kind) int {
	switch kind {
	case consolidation.KindInvalidArgument:
		return http.StatusBadRequest
	case consolidation.KindNotFound:
		return http.StatusNotFound
	case consolidation.KindStorageFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes err as an ErrorResponse and logs it.
func (c *Controller) HandleError(ctx echo.Context, err error) error {
	kind := consolidation.KindOf(err)
	if kind == "" {
		kind = consolidation.KindInternal
	}
	code := statusFor(kind)

	reason := consolidation.ReasonOf(err)
	message := err.Error()
	switch kind {
	case consolidation.KindStorageFailure:
		message = storageMessage
	case consolidation.KindInvalidArgument, consolidation.KindNotFound:
	default:
		message = "internal error"
		if reason == "" {
			reason = reasonInternal
		}
	}

	resp := &ErrorResponse{
		Error:         reason,
		Kind:          string(kind),
		Message:       message,
		CorrelationID: correlationID(ctx),
	}

	log := c.log.WithContext(ctx.Request().Context())
	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("kind", resp.Kind),
		logger.String("reason", reason),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
		logger.Error(err),
	}
	if code >= http.StatusInternalServerError {
		log.Error("api error", fields...)
	} else {
		log.Debug("api request rejected", fields...)
	}

	return ctx.JSON(code, resp)
}

// correlationID reuses the request id when the middleware set one.
func correlationID(ctx echo.Context) string {
	if id := ctx.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}

func badBody(err error) error {
	return errors.New(err).
		Component("api").
		Category(errors.CategoryValidation).
		Context("reason", reasonBadBody).
		Build()
}

// readFailure wraps a repository error for a read endpoint.
func readFailure(operation string, err error) error {
	if err == nil {
		return nil
	}
	return errors.New(err).
		Component("api").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Context("reason", "storage").
		Build()
}
