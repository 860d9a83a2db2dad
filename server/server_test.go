package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	donation "github.com/tipjar-labs/x402-donation"
)

const testRecipient = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

type stubFacilitator struct {
	verifyResp  *donation.VerifyResponse
	settleResp  *donation.SettleResponse
	lastPayload donation.PaymentPayload
	settleCalls int
}

func (s *stubFacilitator) Verify(_ context.Context, payload donation.PaymentPayload, _ donation.PaymentRequirements) (*donation.VerifyResponse, error) {
	s.lastPayload = payload
	if s.verifyResp != nil {
		return s.verifyResp, nil
	}
	return &donation.VerifyResponse{IsValid: true}, nil
}

func (s *stubFacilitator) Settle(_ context.Context, _ donation.PaymentPayload, _ donation.PaymentRequirements) (*donation.SettleResponse, error) {
	s.settleCalls++
	if s.settleResp != nil {
		return s.settleResp, nil
	}
	return &donation.SettleResponse{Success: true, Transaction: "0xabc123"}, nil
}

func newTestRouter(facilitator donation.Facilitator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	New(donation.NewExchange(facilitator)).Register(router)
	return router
}

func encodeHeader(payload string) string {
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

func validHeader() string {
	return encodeHeader(`{"protocolVersion":2,"payload":{"signature":"0xsig"}}`)
}

func decodeChallenge(t *testing.T, w *httptest.ResponseRecorder) donation.PaymentRequired {
	t.Helper()
	header := w.Header().Get(HeaderPaymentRequired)
	if header == "" {
		t.Fatal("expected PAYMENT-REQUIRED response header")
	}
	required, err := donation.DecodePaymentRequired(header)
	if err != nil {
		t.Fatalf("failed to decode challenge header: %v", err)
	}
	return required
}

func TestGetIssuesChallengeWithDefaultAmount(t *testing.T) {
	router := newTestRouter(&stubFacilitator{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/donate/"+testRecipient+"/base", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", w.Code)
	}

	required := decodeChallenge(t, w)
	if required.ProtocolVersion != 2 {
		t.Errorf("expected protocolVersion 2, got %d", required.ProtocolVersion)
	}
	if len(required.Accepts) != 1 {
		t.Fatalf("expected one accepted option, got %d", len(required.Accepts))
	}
	// Default amount is 100 cents, one dollar, 1,000,000 USDC base units.
	if required.Accepts[0].Amount != "1000000" {
		t.Errorf("expected amount 1000000, got %s", required.Accepts[0].Amount)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["error"] != "Payment Required" {
		t.Errorf("expected body error 'Payment Required', got %q", body["error"])
	}
}

func TestGetExplicitAmount(t *testing.T) {
	router := newTestRouter(&stubFacilitator{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/donate/"+testRecipient+"/base?amount=300", nil)
	router.ServeHTTP(w, req)

	required := decodeChallenge(t, w)
	if required.Accepts[0].Amount != "3000000" {
		t.Errorf("expected amount 3000000, got %s", required.Accepts[0].Amount)
	}
}

func TestGetValidationFailures(t *testing.T) {
	router := newTestRouter(&stubFacilitator{})

	cases := []struct {
		name string
		path string
	}{
		{"invalid recipient", "/donate/0xZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ/base"},
		{"unsupported network", "/donate/" + testRecipient + "/arbitrum"},
		{"non-numeric amount", "/donate/" + testRecipient + "/base?amount=abc"},
		{"zero amount", "/donate/" + testRecipient + "/base?amount=0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), "error") {
				t.Errorf("expected an error body, got %s", w.Body.String())
			}
		})
	}
}

func TestPostValidatesRecipientBeforeRedemption(t *testing.T) {
	router := newTestRouter(&stubFacilitator{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/donate/0xZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ/base", nil)
	req.Header.Set(HeaderPaymentSignature, validHeader())
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 on POST with bad recipient, got %d", w.Code)
	}
}

func TestPostWithoutProofMatchesGetChallenge(t *testing.T) {
	router := newTestRouter(&stubFacilitator{})

	get := httptest.NewRecorder()
	router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/donate/"+testRecipient+"/base?amount=200", nil))

	post := httptest.NewRecorder()
	router.ServeHTTP(post, httptest.NewRequest(http.MethodPost, "/donate/"+testRecipient+"/base?amount=200", nil))

	if post.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", post.Code)
	}
	if get.Header().Get(HeaderPaymentRequired) != post.Header().Get(HeaderPaymentRequired) {
		t.Error("POST without proof must issue the same challenge as GET")
	}
}

func TestPostSuccess(t *testing.T) {
	router := newTestRouter(&stubFacilitator{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/donate/"+testRecipient+"/base",
		strings.NewReader(`{"message":"thanks for the blog"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderPaymentSignature, validHeader())
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var receipt donation.Receipt
	if err := json.Unmarshal(w.Body.Bytes(), &receipt); err != nil {
		t.Fatalf("failed to decode receipt: %v", err)
	}
	if !receipt.Success {
		t.Error("expected success true")
	}
	if receipt.Recipient != testRecipient {
		t.Errorf("expected recipient %s, got %s", testRecipient, receipt.Recipient)
	}
	if receipt.Network != "eip155:8453" {
		t.Errorf("expected network eip155:8453, got %s", receipt.Network)
	}
	if receipt.TxHash != "0xabc123" {
		t.Errorf("expected txHash 0xabc123, got %s", receipt.TxHash)
	}
	if receipt.Message != "thanks for the blog" {
		t.Errorf("expected message echoed back, got %q", receipt.Message)
	}
}

func TestPostHeaderPriority(t *testing.T) {
	stub := &stubFacilitator{}
	router := newTestRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/donate/"+testRecipient+"/base", nil)
	req.Header.Set(HeaderPaymentSignature, encodeHeader(`{"protocolVersion":2,"payload":{"which":"current"}}`))
	req.Header.Set(HeaderPaymentLegacy, encodeHeader(`{"protocolVersion":2,"payload":{"which":"legacy"}}`))
	router.ServeHTTP(w, req)

	if !strings.Contains(string(stub.lastPayload), `"current"`) {
		t.Errorf("PAYMENT-SIGNATURE must win over X-PAYMENT, facilitator saw %s", stub.lastPayload)
	}
}

func TestPostLegacyHeaderAccepted(t *testing.T) {
	stub := &stubFacilitator{}
	router := newTestRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/donate/"+testRecipient+"/base", nil)
	req.Header.Set(HeaderPaymentLegacy, validHeader())
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected legacy header to redeem, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPostInvalidPaymentBody(t *testing.T) {
	router := newTestRouter(&stubFacilitator{
		verifyResp: &donation.VerifyResponse{IsValid: false, InvalidReason: "expired"},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/donate/"+testRecipient+"/base", nil)
	req.Header.Set(HeaderPaymentSignature, validHeader())
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "Invalid payment" || body["reason"] != "expired" {
		t.Errorf("unexpected error body: %s", w.Body.String())
	}
}

func TestPostSettlementFailureBody(t *testing.T) {
	router := newTestRouter(&stubFacilitator{
		settleResp: &donation.SettleResponse{Success: false, ErrorReason: "insufficient_funds"},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/donate/"+testRecipient+"/base", nil)
	req.Header.Set(HeaderPaymentSignature, validHeader())
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "Settlement failed" || body["reason"] != "insufficient_funds" {
		t.Errorf("unexpected error body: %s", w.Body.String())
	}
}

func TestPostMalformedProofIs500(t *testing.T) {
	router := newTestRouter(&stubFacilitator{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/donate/"+testRecipient+"/base", nil)
	req.Header.Set(HeaderPaymentSignature, "***garbage***")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for malformed proof, got %d", w.Code)
	}
}

func TestResourceURLExcludesQuery(t *testing.T) {
	router := newTestRouter(&stubFacilitator{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/donate/"+testRecipient+"/base?amount=300", nil)
	req.Host = "donate.example.com"
	router.ServeHTTP(w, req)

	required := decodeChallenge(t, w)
	resource := required.Accepts[0].Resource
	if strings.Contains(resource, "?") {
		t.Errorf("resource URL must not carry the query string: %s", resource)
	}
	if !strings.HasPrefix(resource, "http://donate.example.com/donate/") {
		t.Errorf("unexpected resource URL: %s", resource)
	}
}

func TestWithBaseURL(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	exchange := donation.NewExchange(&stubFacilitator{})
	New(exchange, WithBaseURL("https://donate.example.com")).Register(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/donate/"+testRecipient+"/base", nil))

	required := decodeChallenge(t, w)
	if !strings.HasPrefix(required.Accepts[0].Resource, "https://donate.example.com/") {
		t.Errorf("expected configured base URL, got %s", required.Accepts[0].Resource)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	New(donation.NewExchange(&stubFacilitator{})).Register(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/donate/"+testRecipient+"/base", nil))

	if w.Header().Get(HeaderRequestID) == "" {
		t.Error("expected X-Request-Id on the response")
	}
}
