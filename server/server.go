// Package server binds the donation payment exchange to HTTP using gin.
package server

import (
	"strconv"

	"github.com/gin-gonic/gin"

	donation "github.com/tipjar-labs/x402-donation"
)

// Protocol headers.
const (
	// HeaderPaymentRequired carries the base64-encoded challenge on 402
	// responses.
	HeaderPaymentRequired = "PAYMENT-REQUIRED"

	// HeaderPaymentSignature carries the payment proof on redemption.
	HeaderPaymentSignature = "PAYMENT-SIGNATURE"

	// HeaderPaymentLegacy is the pre-v2 payment proof header, still
	// accepted after HeaderPaymentSignature.
	HeaderPaymentLegacy = "X-PAYMENT"
)

// DefaultAmountCents is charged when no amount query parameter is given.
const DefaultAmountCents = 100

// Handler serves the donation endpoint.
type Handler struct {
	exchange *donation.Exchange
	baseURL  string
}

// Option configures a Handler.
type Option func(*Handler)

// WithBaseURL sets the canonical base URL ("https://donate.example.com")
// used to build resource URLs. Without it the URL is derived from the
// incoming request.
func WithBaseURL(baseURL string) Option {
	return func(h *Handler) {
		h.baseURL = baseURL
	}
}

// New creates a Handler around an exchange.
func New(exchange *donation.Exchange, opts ...Option) *Handler {
	h := &Handler{exchange: exchange}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the donation routes on a gin router.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/donate/:recipient/:network", h.challenge)
	r.POST("/donate/:recipient/:network", h.redeem)
}

// challenge handles GET: always answers with a 402 challenge or a
// validation error.
func (h *Handler) challenge(c *gin.Context) {
	result := h.exchange.HandleChallenge(h.challengeRequest(c))
	h.render(c, result)
}

// redeem handles POST: re-challenges when no proof is present, otherwise
// runs verify-then-settle.
func (h *Handler) redeem(c *gin.Context) {
	var body struct {
		Message string `json:"message"`
	}
	// The body is optional and display-only; a bad body is ignored
	// rather than rejected.
	_ = c.ShouldBindJSON(&body)

	result := h.exchange.HandleRedeem(c.Request.Context(), donation.RedeemRequest{
		ChallengeRequest: h.challengeRequest(c),
		PaymentHeader:    paymentHeader(c),
		Message:          body.Message,
	})
	h.render(c, result)
}

func (h *Handler) challengeRequest(c *gin.Context) donation.ChallengeRequest {
	return donation.ChallengeRequest{
		Recipient:   c.Param("recipient"),
		Network:     c.Param("network"),
		AmountCents: parseAmount(c.Query("amount")),
		ResourceURL: h.resourceURL(c),
	}
}

// parseAmount reads the amount query parameter in cents. Anything that
// is not a positive integer comes back as 0 and fails exchange
// validation, so the error taxonomy stays in one place.
func parseAmount(raw string) int64 {
	if raw == "" {
		return DefaultAmountCents
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return amount
}

// paymentHeader returns the payment proof, checking the current header
// name before the legacy one. Header lookup is case-insensitive.
func paymentHeader(c *gin.Context) string {
	if proof := c.GetHeader(HeaderPaymentSignature); proof != "" {
		return proof
	}
	return c.GetHeader(HeaderPaymentLegacy)
}

// resourceURL builds the canonical URL of the requested resource. The
// query string is excluded so the challenge and redemption paths derive
// the same value.
func (h *Handler) resourceURL(c *gin.Context) string {
	if h.baseURL != "" {
		return h.baseURL + c.Request.URL.Path
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.Path
}

// render writes an exchange result: a 402 challenge with its header, a
// settled receipt, or an error body. Every failure branch produces a
// distinct, user-visible message.
func (h *Handler) render(c *gin.Context, result donation.Result) {
	switch {
	case result.Challenge != nil:
		c.Header(HeaderPaymentRequired, result.Challenge.Header)
		c.JSON(result.Status, gin.H{"error": "Payment Required"})
	case result.Receipt != nil:
		c.JSON(result.Status, result.Receipt)
	default:
		c.JSON(result.Status, result.Err)
	}
}
