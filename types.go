// Package donation implements the x402 payment exchange behind the
// donation endpoint: building payment requirements, issuing 402
// challenges, and running the verify-then-settle handshake against an
// external facilitator.
package donation

import "encoding/json"

// ProtocolVersion is the x402 protocol version spoken on every wire
// surface: the 402 challenge, the payment payload, and facilitator calls.
const ProtocolVersion = 2

// SchemeExact is the only payment scheme this service offers.
const SchemeExact = "exact"

// PaymentRequirements describes one acceptable way to pay for a resource.
// A requirement is a pure function of (recipient, network, amount,
// resource URL); nothing in it depends on the clock or randomness, so the
// redemption path can recompute it and get a byte-identical value to the
// one advertised in the challenge.
type PaymentRequirements struct {
	Scheme            string        `json:"scheme"`
	Network           string        `json:"network"`
	Amount            string        `json:"amount"`
	Resource          string        `json:"resource"`
	Description       string        `json:"description"`
	MimeType          string        `json:"mimeType"`
	PayTo             string        `json:"payTo"`
	MaxTimeoutSeconds int           `json:"maxTimeoutSeconds"`
	Asset             string        `json:"asset"`
	Extra             *SigningExtra `json:"extra,omitempty"`
}

// SigningExtra carries the EIP-712 domain parameters the client needs to
// produce a valid transfer authorization for the asset contract.
type SigningExtra struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PaymentRequired is the 402 challenge body, carried base64-encoded in
// the PAYMENT-REQUIRED response header.
type PaymentRequired struct {
	ProtocolVersion int                   `json:"protocolVersion"`
	Accepts         []PaymentRequirements `json:"accepts"`
	Error           string                `json:"error,omitempty"`
}

// PaymentPayload is the client-supplied signed authorization. The
// exchange never interprets its internals beyond a shape check; it is
// forwarded verbatim to the facilitator.
type PaymentPayload = json.RawMessage

// VerifyResponse is the facilitator's answer to a dry-run payment check.
type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
}

// SettleResponse is the facilitator's answer to an on-chain settlement.
type SettleResponse struct {
	Success     bool   `json:"success"`
	ErrorReason string `json:"errorReason,omitempty"`
	Transaction string `json:"transaction,omitempty"`
}

// Receipt is the success body returned once a payment has settled.
type Receipt struct {
	Success   bool   `json:"success"`
	Recipient string `json:"recipient"`
	Network   string `json:"network"`
	TxHash    string `json:"txHash"`
	Message   string `json:"message,omitempty"`
}
