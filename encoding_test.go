package donation

import (
	"encoding/base64"
	"reflect"
	"strings"
	"testing"
)

func TestEncodePaymentRequiredRoundTrip(t *testing.T) {
	accepts, err := BuildRequirements(testRecipient, "base", 100, testResource)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	required := PaymentRequired{
		ProtocolVersion: ProtocolVersion,
		Accepts:         accepts,
		Error:           "Payment Required",
	}

	encoded, err := EncodePaymentRequired(required)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodePaymentRequired(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.ProtocolVersion != 2 {
		t.Errorf("expected protocolVersion 2, got %d", decoded.ProtocolVersion)
	}
	if decoded.Error != "Payment Required" {
		t.Errorf("expected error 'Payment Required', got %q", decoded.Error)
	}
	if len(decoded.Accepts) != 1 || !reflect.DeepEqual(decoded.Accepts[0], accepts[0]) {
		t.Errorf("requirements did not survive the round trip: %+v", decoded.Accepts)
	}
}

func TestDecodePaymentPayload(t *testing.T) {
	valid := base64.StdEncoding.EncodeToString([]byte(`{"protocolVersion":2,"payload":{"signature":"0xsig"}}`))
	payload, err := DecodePaymentPayload(valid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(payload), `"signature"`) {
		t.Errorf("payload was not passed through verbatim: %s", payload)
	}

	if _, err := DecodePaymentPayload(""); err == nil {
		t.Error("expected error for empty header")
	}
	if _, err := DecodePaymentPayload("not-base64!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	notJSON := base64.StdEncoding.EncodeToString([]byte("hello"))
	if _, err := DecodePaymentPayload(notJSON); err == nil {
		t.Error("expected error for non-JSON payload")
	}
}

func TestValidatePayload(t *testing.T) {
	valid := PaymentPayload(`{"protocolVersion":2,"payload":{"signature":"0xsig"}}`)
	if err := ValidatePayload(valid); err != nil {
		t.Errorf("expected valid payload to pass, got %v", err)
	}

	cases := map[string]string{
		"missing payload":       `{"protocolVersion":2}`,
		"missing version":       `{"payload":{}}`,
		"version below minimum": `{"protocolVersion":0,"payload":{}}`,
		"payload not an object": `{"protocolVersion":2,"payload":"sig"}`,
		"top level not object":  `[1,2,3]`,
	}
	for name, raw := range cases {
		if err := ValidatePayload(PaymentPayload(raw)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
