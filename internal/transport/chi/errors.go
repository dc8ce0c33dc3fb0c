package chi

import (
	"context"
	"errors"
	"net/http"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/transport/api"
)

// errorView is what a page shows for a failed operation.
type errorView struct {
	Status  int
	Message string
}

// errorHandler maps a domain error to a view. Returns false if not handled.
type errorHandler func(err error) (errorView, bool)

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, message string) errorHandler {
	return func(err error) (errorView, bool) {
		if !errors.Is(err, sentinel) {
			return errorView{}, false
		}
		return errorView{Status: status, Message: message}, true
	}
}

// fieldErrorHandler shows which field failed local validation.
func fieldErrorHandler(err error) (errorView, bool) {
	var fe *domain.FieldError
	if !errors.As(err, &fe) {
		return errorView{}, false
	}
	return errorView{Status: http.StatusBadRequest, Message: "Please check " + fe.Field + ": " + fe.Reason + "."}, true
}

// backendMessageHandler surfaces the backend's own message for rejected input.
func backendMessageHandler(err error) (errorView, bool) {
	apiErr, ok := api.IsAPIError(err)
	if !ok || apiErr.Message == "" {
		return errorView{}, false
	}
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict, http.StatusNotFound:
		return errorView{Status: apiErr.Status, Message: apiErr.Message}, true
	}
	return errorView{}, false
}

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		fieldErrorHandler,
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, "Please sign in to continue."),
		backendMessageHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, "We could not find what you were looking for."),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, "You are not allowed to do that."),
		sentinelHandler(domain.ErrConflict, http.StatusConflict, "That already exists."),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, "Some fields are invalid. Please check the form."),
		sentinelHandler(domain.ErrInvalidTransition, http.StatusConflict, "That action is not possible in the current state."),
		sentinelHandler(domain.ErrMapDisabled, http.StatusServiceUnavailable, "The map is not available."),
		sentinelHandler(domain.ErrUnavailable, http.StatusBadGateway, "Cannot reach SwapCycle right now. Please try again."),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, "SwapCycle took too long to answer. Please try again."),
		sentinelHandler(domain.ErrBackend, http.StatusBadGateway, "SwapCycle had a problem. Please try again later."),
	}
}

func (s *Server) viewFor(err error) errorView {
	for _, h := range s.errorHandlers {
		if v, ok := h(err); ok {
			return v
		}
	}
	return errorView{Status: http.StatusInternalServerError, Message: "Something went wrong. Please try again."}
}
