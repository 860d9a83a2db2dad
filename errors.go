package donation

import (
	"errors"
	"fmt"
	"net/http"
)

// Builder-level sentinel errors.
var (
	ErrUnsupportedNetwork = errors.New("donation: unsupported network")
	ErrInvalidAmount      = errors.New("donation: amount must be at least 1 cent")
)

// Error codes. Each code maps to exactly one HTTP status: 400 for
// caller/input/verification faults, 500 for facilitator-side faults.
const (
	CodeInvalidRecipient      = "invalid_recipient"
	CodeUnsupportedNetwork    = "unsupported_network"
	CodeInvalidAmount         = "invalid_amount"
	CodeMalformedPayload      = "malformed_payload"
	CodeVerificationTransport = "verification_transport_error"
	CodeInvalidPayment        = "invalid_payment"
	CodeSettlementTransport   = "settlement_transport_error"
	CodeSettlementFailed      = "settlement_failed"
)

// PaymentError is a terminal exchange failure. Message and Reason form
// the JSON error body; Status is the HTTP status it renders with.
type PaymentError struct {
	Code    string `json:"-"`
	Status  int    `json:"-"`
	Message string `json:"error"`
	Reason  string `json:"reason,omitempty"`
}

func (e *PaymentError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newPaymentError(code string, status int, message, reason string) *PaymentError {
	return &PaymentError{Code: code, Status: status, Message: message, Reason: reason}
}

func errInvalidRecipient(recipient string) *PaymentError {
	return newPaymentError(CodeInvalidRecipient, http.StatusBadRequest,
		"Invalid recipient address", recipient)
}

func errUnsupportedNetwork(network string) *PaymentError {
	return newPaymentError(CodeUnsupportedNetwork, http.StatusBadRequest,
		"Unsupported network", network)
}

func errInvalidAmount() *PaymentError {
	return newPaymentError(CodeInvalidAmount, http.StatusBadRequest,
		"Amount must be a positive integer number of cents", "")
}

func errMalformedPayload(reason string) *PaymentError {
	return newPaymentError(CodeMalformedPayload, http.StatusInternalServerError,
		"Malformed payment payload", reason)
}

func errVerificationTransport(err error) *PaymentError {
	return newPaymentError(CodeVerificationTransport, http.StatusBadRequest,
		"Payment verification failed", err.Error())
}

func errInvalidPayment(reason string) *PaymentError {
	return newPaymentError(CodeInvalidPayment, http.StatusBadRequest,
		"Invalid payment", reason)
}

func errSettlementTransport(err error) *PaymentError {
	return newPaymentError(CodeSettlementTransport, http.StatusInternalServerError,
		"Settlement failed", err.Error())
}

func errSettlementFailed(reason string) *PaymentError {
	return newPaymentError(CodeSettlementFailed, http.StatusInternalServerError,
		"Settlement failed", reason)
}
