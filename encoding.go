package donation

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncodePaymentRequired serializes a 402 challenge for transport in the
// PAYMENT-REQUIRED response header: JSON, then standard base64.
func EncodePaymentRequired(required PaymentRequired) (string, error) {
	raw, err := json.Marshal(required)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment required: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodePaymentRequired reverses EncodePaymentRequired. Used by tests
// and by clients embedding this package.
func DecodePaymentRequired(encoded string) (PaymentRequired, error) {
	var required PaymentRequired
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return required, fmt.Errorf("failed to decode base64: %w", err)
	}
	if err := json.Unmarshal(raw, &required); err != nil {
		return required, fmt.Errorf("failed to unmarshal payment required: %w", err)
	}
	return required, nil
}

// DecodePaymentPayload decodes a payment proof header into the raw JSON
// forwarded to the facilitator. The payload is otherwise opaque to this
// service; shape constraints are enforced separately by ValidatePayload.
func DecodePaymentPayload(encoded string) (PaymentPayload, error) {
	if encoded == "" {
		return nil, fmt.Errorf("payment header is empty")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("payment payload is not valid JSON")
	}
	return PaymentPayload(raw), nil
}
