// Package echoapi mirrors the gin binding in package server for
// applications built on echo. The exchange semantics are identical; only
// the framework plumbing differs.
package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	donation "github.com/tipjar-labs/x402-donation"
	"github.com/tipjar-labs/x402-donation/server"
)

// Handler serves the donation endpoint on an echo router.
type Handler struct {
	exchange *donation.Exchange
	baseURL  string
}

// Option configures a Handler.
type Option func(*Handler)

// WithBaseURL sets the canonical base URL used for resource URLs.
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

// Register mounts the donation routes.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/donate/:recipient/:network", h.challenge)
	e.POST("/donate/:recipient/:network", h.redeem)
}

func (h *Handler) challenge(c echo.Context) error {
	return h.render(c, h.exchange.HandleChallenge(h.challengeRequest(c)))
}

func (h *Handler) redeem(c echo.Context) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = c.Bind(&body) // optional, display-only

	result := h.exchange.HandleRedeem(c.Request().Context(), donation.RedeemRequest{
		ChallengeRequest: h.challengeRequest(c),
		PaymentHeader:    paymentHeader(c),
		Message:          body.Message,
	})
	return h.render(c, result)
}

func (h *Handler) challengeRequest(c echo.Context) donation.ChallengeRequest {
	amount := int64(server.DefaultAmountCents)
	if raw := c.QueryParam("amount"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			parsed = 0
		}
		amount = parsed
	}
	return donation.ChallengeRequest{
		Recipient:   c.Param("recipient"),
		Network:     c.Param("network"),
		AmountCents: amount,
		ResourceURL: h.resourceURL(c),
	}
}

func paymentHeader(c echo.Context) string {
	if proof := c.Request().Header.Get(server.HeaderPaymentSignature); proof != "" {
		return proof
	}
	return c.Request().Header.Get(server.HeaderPaymentLegacy)
}

func (h *Handler) resourceURL(c echo.Context) string {
	if h.baseURL != "" {
		return h.baseURL + c.Request().URL.Path
	}
	return c.Scheme() + "://" + c.Request().Host + c.Request().URL.Path
}

func (h *Handler) render(c echo.Context, result donation.Result) error {
	switch {
	case result.Challenge != nil:
		c.Response().Header().Set(server.HeaderPaymentRequired, result.Challenge.Header)
		return c.JSON(result.Status, map[string]string{"error": "Payment Required"})
	case result.Receipt != nil:
		return c.JSON(result.Status, result.Receipt)
	default:
		return c.JSON(result.Status, result.Err)
	}
}
