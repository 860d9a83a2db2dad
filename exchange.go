package donation

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

// Facilitator is the external service that validates and executes
// payments on behalf of this server. It is the sole authority on payment
// validity and settlement outcome: this core holds no key material and
// never touches the chain itself.
type Facilitator interface {
	Verify(ctx context.Context, payload PaymentPayload, requirements PaymentRequirements) (*VerifyResponse, error)
	Settle(ctx context.Context, payload PaymentPayload, requirements PaymentRequirements) (*SettleResponse, error)
}

// Exchange orchestrates the x402 challenge/redeem protocol for donation
// requests. It is stateless apart from the optional settlement dedupe
// cache; every requirement is recomputed per request.
type Exchange struct {
	facilitator Facilitator
	settlements *SettlementCache
}

// ExchangeOption configures an Exchange.
type ExchangeOption func(*Exchange)

// WithSettlementCache enables settle deduplication by payment proof.
func WithSettlementCache(cache *SettlementCache) ExchangeOption {
	return func(e *Exchange) {
		e.settlements = cache
	}
}

// NewExchange creates an Exchange backed by the given facilitator.
func NewExchange(facilitator Facilitator, opts ...ExchangeOption) *Exchange {
	e := &Exchange{facilitator: facilitator}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ChallengeRequest carries the inputs of a challenge or redemption.
type ChallengeRequest struct {
	Recipient   string
	Network     string
	AmountCents int64
	ResourceURL string
}

// RedeemRequest extends ChallengeRequest with the payment proof header
// value (empty when absent) and the optional donor message.
type RedeemRequest struct {
	ChallengeRequest
	PaymentHeader string
	Message       string
}

// Challenge is an issued 402 challenge: the encoded header value plus
// the decoded form for callers that want to inspect it.
type Challenge struct {
	Header   string
	Required PaymentRequired
}

// Result is the terminal outcome of one exchange pass. Exactly one of
// Challenge, Receipt, Err is set, matching Status 402, 200, or an error
// status respectively.
type Result struct {
	Status    int
	Challenge *Challenge
	Receipt   *Receipt
	Err       *PaymentError
}

func failure(perr *PaymentError) Result {
	return Result{Status: perr.Status, Err: perr}
}

// validate applies identical input validation on the challenge and
// redemption paths, before either branches into protocol logic.
func validate(req ChallengeRequest) *PaymentError {
	if !common.IsHexAddress(req.Recipient) {
		return errInvalidRecipient(req.Recipient)
	}
	if _, ok := LookupNetwork(req.Network); !ok {
		return errUnsupportedNetwork(req.Network)
	}
	if req.AmountCents < 1 {
		return errInvalidAmount()
	}
	return nil
}

// HandleChallenge validates the request and issues a 402 challenge.
func (e *Exchange) HandleChallenge(req ChallengeRequest) Result {
	if perr := validate(req); perr != nil {
		return failure(perr)
	}

	accepts, err := BuildRequirements(req.Recipient, req.Network, req.AmountCents, req.ResourceURL)
	if err != nil {
		// Unreachable after validate; surface it rather than swallow.
		return failure(errUnsupportedNetwork(req.Network))
	}

	required := PaymentRequired{
		ProtocolVersion: ProtocolVersion,
		Accepts:         accepts,
		Error:           "Payment Required",
	}
	header, err := EncodePaymentRequired(required)
	if err != nil {
		return failure(newPaymentError(CodeMalformedPayload, http.StatusInternalServerError,
			"Failed to encode payment requirements", err.Error()))
	}

	return Result{
		Status:    http.StatusPaymentRequired,
		Challenge: &Challenge{Header: header, Required: required},
	}
}

// HandleRedeem runs the redemption state machine: decode the payment
// proof, recompute the expected requirement, verify, then settle. Settle
// is never attempted unless verify reported the payment valid. There are
// no retries; each facilitator call happens at most once per request,
// modulo the dedupe cache returning a previously recorded settlement.
func (e *Exchange) HandleRedeem(ctx context.Context, req RedeemRequest) Result {
	if perr := validate(req.ChallengeRequest); perr != nil {
		return failure(perr)
	}

	// No proof presented: re-issue the same challenge a GET would get.
	if req.PaymentHeader == "" {
		return e.HandleChallenge(req.ChallengeRequest)
	}

	payload, err := DecodePaymentPayload(req.PaymentHeader)
	if err != nil {
		return failure(errMalformedPayload(err.Error()))
	}
	if err := ValidatePayload(payload); err != nil {
		return failure(errMalformedPayload(err.Error()))
	}

	// Recomputed, not stored: must be byte-identical to what the
	// challenge advertised for the same inputs.
	accepts, err := BuildRequirements(req.Recipient, req.Network, req.AmountCents, req.ResourceURL)
	if err != nil {
		return failure(errUnsupportedNetwork(req.Network))
	}
	requirement := accepts[0]

	verify, err := e.facilitator.Verify(ctx, payload, requirement)
	if err != nil {
		return failure(errVerificationTransport(err))
	}
	if !verify.IsValid {
		return failure(errInvalidPayment(verify.InvalidReason))
	}

	settle, perr := e.settle(ctx, req, payload, requirement)
	if perr != nil {
		return failure(perr)
	}

	return Result{
		Status: http.StatusOK,
		Receipt: &Receipt{
			Success:   true,
			Recipient: req.Recipient,
			Network:   requirement.Network,
			TxHash:    settle.Transaction,
			Message:   req.Message,
		},
	}
}

// settle executes the settlement phase, going through the dedupe cache
// when one is configured.
func (e *Exchange) settle(ctx context.Context, req RedeemRequest, payload PaymentPayload, requirement PaymentRequirements) (*SettleResponse, *PaymentError) {
	if e.settlements == nil {
		return e.settleOnce(ctx, payload, requirement, "", nil)
	}

	key := SettlementKey(req.PaymentHeader)
	for {
		status, cached, done := e.settlements.CheckAndMark(key)
		switch status {
		case SettlementCached:
			return cached, nil
		case SettlementInFlight:
			result, err := e.settlements.Wait(ctx, key, done)
			if err != nil {
				return nil, errSettlementTransport(err)
			}
			if result != nil {
				return result, nil
			}
			// The in-flight attempt failed; take over the key.
			continue
		case SettlementNew:
			return e.settleOnce(ctx, payload, requirement, key, done)
		}
	}
}

// settleOnce performs a single facilitator settle call, resolving the
// in-flight marker when the dedupe cache is active.
func (e *Exchange) settleOnce(ctx context.Context, payload PaymentPayload, requirement PaymentRequirements, key string, done chan struct{}) (*SettleResponse, *PaymentError) {
	settle, err := e.facilitator.Settle(ctx, payload, requirement)
	if err != nil {
		if done != nil {
			e.settlements.Fail(key, done)
		}
		return nil, errSettlementTransport(err)
	}
	if !settle.Success {
		if done != nil {
			e.settlements.Fail(key, done)
		}
		return nil, errSettlementFailed(settle.ErrorReason)
	}
	if done != nil {
		e.settlements.Complete(key, settle, done)
	}
	return settle, nil
}
