package donation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// paymentPayloadSchema constrains the outer shape of a payment payload
// before it is forwarded to the facilitator. The inner "payload" object
// (signature, authorization, nonce) is deliberately left unconstrained:
// the facilitator is the sole authority on its contents.
const paymentPayloadSchema = `{
	"type": "object",
	"required": ["protocolVersion", "payload"],
	"properties": {
		"protocolVersion": {"type": "integer", "minimum": 1},
		"payload": {"type": "object"},
		"accepted": {"type": "object"}
	}
}`

var payloadSchema = gojsonschema.NewStringLoader(paymentPayloadSchema)

// ValidatePayload checks a decoded payment payload against the outer
// schema. A failure means the client sent something that was never a
// payment proof, not a payment that failed verification.
func ValidatePayload(payload PaymentPayload) error {
	result, err := gojsonschema.Validate(payloadSchema, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("payload validation failed: %w", err)
	}
	if !result.Valid() {
		descs := make([]string, 0, len(result.Errors()))
		for _, resErr := range result.Errors() {
			descs = append(descs, resErr.String())
		}
		return fmt.Errorf("invalid payment payload: %s", strings.Join(descs, "; "))
	}
	return nil
}
