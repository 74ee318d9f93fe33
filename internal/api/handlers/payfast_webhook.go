package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"

	"shegymz/internal/core"
	"shegymz/internal/payfast"
	"shegymz/internal/types"
)

// maxITNBodySize is the maximum allowed size of a notification payload.
// Notifications are a few dozen short form fields.
const maxITNBodySize = 16 * 1024

// Failure strings returned in the webhook body.
const (
	errSignatureFailed  = "Signature verification failed"
	errMerchantMismatch = "Merchant ID mismatch"
	errProcessing       = "Processing error"
)

// Notification outcomes, used as a metric dimension.
const (
	OutcomeVerified          = "verified"
	OutcomeSignatureMismatch = "signature_mismatch"
	OutcomeMerchantMismatch  = "merchant_mismatch"
	OutcomeProcessingError   = "processing_error"
)

// NotificationVerifier authenticates and parses a notification payload.
type NotificationVerifier interface {
	Verify(fields map[string]string) (payfast.Notification, error)
}

// NotificationRecorder records the outcome of each received notification.
type NotificationRecorder interface {
	RecordNotification(ctx context.Context, outcome, paymentStatus string)
}

// WebhookResponse is the acknowledgement body returned to the processor.
type WebhookResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// PayFastWebhookHandler receives Instant Transaction Notifications.
//
// The processor retries any notification that is not answered with HTTP 200,
// so every outcome, including forged or malformed payloads, is acknowledged
// with 200. Failures are reported only in the body, the logs and metrics.
// Membership state is not changed here; repeated deliveries of the same
// notification are verified and logged again with no other effect.
type PayFastWebhookHandler struct {
	verifier NotificationVerifier
	recorder NotificationRecorder
	logger   *slog.Logger
}

// NewPayFastWebhookHandler creates a new PayFastWebhookHandler. recorder may be nil.
func NewPayFastWebhookHandler(verifier NotificationVerifier, recorder NotificationRecorder, logger *slog.Logger) *PayFastWebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PayFastWebhookHandler{
		verifier: verifier,
		recorder: recorder,
		logger:   logger,
	}
}

// RegisterRoutes mounts the notification endpoint.
func (h *PayFastWebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhook/payfast", h.Handle)
}

// Handle processes POST /api/webhook/payfast.
func (h *PayFastWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	defer func() {
		if rvr := recover(); rvr != nil {
			h.logger.ErrorContext(ctx, "ITN processing panicked",
				"panic", fmt.Sprintf("%v", rvr),
				"stack", string(debug.Stack()),
			)
			h.record(ctx, OutcomeProcessingError, "")
			core.JSON(w, r, http.StatusOK, WebhookResponse{Error: errProcessing})
		}
	}()

	fields, err := readForm(w, r)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read ITN payload", "error", err)
		h.record(ctx, OutcomeProcessingError, "")
		core.JSON(w, r, http.StatusOK, WebhookResponse{Error: errProcessing})
		return
	}

	itn, err := h.verifier.Verify(fields)
	switch {
	case errors.Is(err, payfast.ErrSignatureMismatch):
		h.logger.WarnContext(ctx, "invalid PayFast ITN signature",
			"pf_payment_id", itn.ProcessorPaymentID,
			"payment_status", string(itn.Status),
		)
		h.record(ctx, OutcomeSignatureMismatch, string(itn.Status))
		core.JSON(w, r, http.StatusOK, WebhookResponse{Error: errSignatureFailed})
		return

	case errors.Is(err, payfast.ErrMerchantMismatch):
		h.logger.WarnContext(ctx, "PayFast ITN merchant ID mismatch",
			"merchant_id", itn.MerchantID,
			"pf_payment_id", itn.ProcessorPaymentID,
		)
		h.record(ctx, OutcomeMerchantMismatch, string(itn.Status))
		core.JSON(w, r, http.StatusOK, WebhookResponse{Error: errMerchantMismatch})
		return

	case err != nil:
		h.logger.ErrorContext(ctx, "PayFast ITN verification error", "error", err)
		h.record(ctx, OutcomeProcessingError, "")
		core.JSON(w, r, http.StatusOK, WebhookResponse{Error: errProcessing})
		return
	}

	h.logger.InfoContext(ctx, "PayFast ITN received",
		"merchant_id", itn.MerchantID,
		"pf_payment_id", itn.ProcessorPaymentID,
		"payment_status", string(itn.Status),
		"email", types.RedactEmail(itn.Email),
		"amount_gross", itn.AmountGross,
	)

	switch itn.Status {
	case payfast.PaymentComplete:
		h.logger.InfoContext(ctx, "payment confirmed",
			"pf_payment_id", itn.ProcessorPaymentID,
			"email", types.RedactEmail(itn.Email),
		)
	case payfast.PaymentFailed:
		h.logger.WarnContext(ctx, "payment failed",
			"pf_payment_id", itn.ProcessorPaymentID,
			"email", types.RedactEmail(itn.Email),
		)
	default:
		h.logger.InfoContext(ctx, "payment pending",
			"pf_payment_id", itn.ProcessorPaymentID,
		)
	}

	h.record(ctx, OutcomeVerified, string(itn.Status))
	core.JSON(w, r, http.StatusOK, WebhookResponse{Success: true})
}

func (h *PayFastWebhookHandler) record(ctx context.Context, outcome, status string) {
	if h.recorder != nil {
		h.recorder.RecordNotification(ctx, outcome, status)
	}
}

// readForm parses the form-encoded body, keeping the first value of each
// field. Query string parameters are not part of the signed payload and are
// ignored.
func readForm(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	if r.Body == nil {
		return nil, fmt.Errorf("missing request body")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxITNBodySize)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parsing form: %w", err)
	}

	fields := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	return fields, nil
}
