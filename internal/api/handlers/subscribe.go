// Package handlers contains the HTTP handler implementations for the
// SheGymZ API: membership sign-up and the PayFast notification webhook.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shegymz/internal/core"
	"shegymz/internal/payfast"
	"shegymz/internal/types"
)

// Client-facing messages. The site's sign-up form displays these verbatim.
const (
	msgMissingFields    = "Missing required fields"
	msgInvalidBody      = "Invalid request body"
	msgSubscribeFailure = "Failed to initiate subscription"
)

// IntentBuilder produces the signed processor redirect URL for a subscriber.
type IntentBuilder interface {
	RedirectURL(sub payfast.Subscriber) string
}

// SubscribeRequest is the sign-up form payload.
type SubscribeRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	BodyGoals    string `json:"bodyGoals"`
	ReferralName string `json:"referralName"`
}

// SubscribeResponse carries the URL the browser must navigate to.
type SubscribeResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

// SubscribeHandler starts a recurring membership subscription by returning a
// signed redirect to the processor's hosted payment page. Nothing is
// persisted; the processor's notification is the first server-side record.
type SubscribeHandler struct {
	builder   IntentBuilder
	validator *core.Validator
	logger    *slog.Logger
}

// NewSubscribeHandler creates a new SubscribeHandler with the provided dependencies.
func NewSubscribeHandler(builder IntentBuilder, validator *core.Validator, logger *slog.Logger) *SubscribeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = core.NewValidator(logger)
	}
	return &SubscribeHandler{
		builder:   builder,
		validator: validator,
		logger:    logger,
	}
}

// RegisterRoutes mounts the sign-up endpoint.
func (h *SubscribeHandler) RegisterRoutes(r chi.Router) {
	r.Post("/subscribe", h.Create)
}

// Create handles POST /api/subscribe.
//
// Responses:
//   - 200 {"redirectUrl": "..."} on success.
//   - 400 when the body is not JSON or name, email or phone is empty.
//   - 500 when the redirect URL could not be produced.
func (h *SubscribeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "invalid subscribe request body", "error", err)
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidJSON, msgInvalidBody, err))
		return
	}

	if err := h.validator.ValidateStruct(req, msgMissingFields); err != nil {
		h.logger.InfoContext(r.Context(), "subscribe request missing fields",
			"email", types.RedactEmail(req.Email),
		)
		core.Error(w, r, err)
		return
	}

	redirectURL, err := h.buildRedirect(r.Context(), payfast.Subscriber{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		BodyGoals:    req.BodyGoals,
		ReferralName: req.ReferralName,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build subscription intent",
			"error", err,
			"email", types.RedactEmail(req.Email),
		)
		core.Error(w, r, types.NewAppError(types.ErrCodeInternalUnexpected, msgSubscribeFailure, err))
		return
	}

	h.logger.InfoContext(r.Context(), "subscription intent created",
		"email", types.RedactEmail(req.Email),
		"referred", req.ReferralName != "",
	)

	core.JSON(w, r, http.StatusOK, SubscribeResponse{RedirectURL: redirectURL})
}

// buildRedirect converts a builder panic into an error so the client gets the
// endpoint's own failure message rather than the generic recoverer body.
func (h *SubscribeHandler) buildRedirect(_ context.Context, sub payfast.Subscriber) (redirectURL string, err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			err = fmt.Errorf("building redirect: %v", rvr)
		}
	}()

	redirectURL = h.builder.RedirectURL(sub)
	if redirectURL == "" {
		return "", fmt.Errorf("building redirect: empty URL")
	}
	return redirectURL, nil
}
