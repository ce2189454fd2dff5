package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"edupay/internal/config"
	"edupay/internal/domain"
	"edupay/internal/gateway"
	"edupay/internal/infra/download"
	"edupay/internal/usecase"
)

type checkoutStub struct {
	Result *usecase.CheckoutResult
	Err    error
	Got    usecase.CheckoutRequest
}

func (s *checkoutStub) Initiate(ctx context.Context, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
	s.Got = req
	return s.Result, s.Err
}

type fulfillmentStub struct {
	Result *usecase.CallbackResult
	Err    error
	Got    gateway.Callback
}

func (s *fulfillmentStub) HandleCallback(ctx context.Context, cb gateway.Callback) (*usecase.CallbackResult, error) {
	s.Got = cb
	return s.Result, s.Err
}

func newTestServer(checkout *checkoutStub, fulfillment *fulfillmentStub) (*Server, *download.Linker) {
	logger := zerolog.New(io.Discard)
	cfg := &config.Config{}
	cfg.Server.Port = 0
	cfg.Storage.Bucket = "edu-docs"
	cfg.Storage.PublicBaseURL = "https://storage.example.com"
	cfg.Storage.TokenSecret = "token-secret"
	cfg.Storage.DownloadTTL = time.Hour
	linker := download.NewLinker("https://pay.example.com", cfg.Storage)
	return NewServer(cfg, checkout, fulfillment, linker, &logger), linker
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(&checkoutStub{}, &fulfillmentStub{})
	rec := get(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestCheckoutHandler(t *testing.T) {
	t.Run("should redirect to the processor on success", func(t *testing.T) {
		checkout := &checkoutStub{Result: &usecase.CheckoutResult{
			TransactionID: "tx-1",
			Amount:        9900,
			RedirectURL:   "https://pay.example.com/p3/?Amount=9900&signature=abc",
		}}
		s, _ := newTestServer(checkout, &fulfillmentStub{})

		rec := get(t, s, "/pay/checkout?userId=user-1&planId=plan-sys&email=a%40b.c&bookIncluded=true&couponId=c1")
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != checkout.Result.RedirectURL {
			t.Errorf("unexpected Location %q", loc)
		}

		// Query parameters reach the use case intact.
		if checkout.Got.UserID != "user-1" || checkout.Got.Email != "a@b.c" {
			t.Errorf("request not mapped: %+v", checkout.Got)
		}
		if !checkout.Got.BookIncluded {
			t.Error("bookIncluded=true not mapped")
		}
		if checkout.Got.CouponID == nil || *checkout.Got.CouponID != "c1" {
			t.Error("couponId not mapped")
		}
	})

	t.Run("should render the stored download for a repeat purchase", func(t *testing.T) {
		checkout := &checkoutStub{Result: &usecase.CheckoutResult{
			AlreadyPurchased: true,
			DownloadLink:     "https://pay.example.com/pay/download/f.pdf?token=x",
			Password:         "312456789",
		}}
		s, _ := newTestServer(checkout, &fulfillmentStub{})

		rec := get(t, s, "/pay/checkout?userId=user-1&planId=plan-book&email=a%40b.c")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, checkout.Result.DownloadLink) {
			t.Error("page does not carry the stored download link")
		}
		if !strings.Contains(body, "312456789") {
			t.Error("page does not carry the password")
		}
	})

	t.Run("should map validation failures to 400", func(t *testing.T) {
		s, _ := newTestServer(&checkoutStub{Err: domain.ErrInvalidArgument}, &fulfillmentStub{})
		if rec := get(t, s, "/pay/checkout"); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("should map an unknown plan to 404", func(t *testing.T) {
		s, _ := newTestServer(&checkoutStub{Err: domain.ErrPlanNotFound}, &fulfillmentStub{})
		if rec := get(t, s, "/pay/checkout?userId=u&planId=p&email=e"); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("should hide internal failures behind a 500", func(t *testing.T) {
		s, _ := newTestServer(&checkoutStub{Err: domain.ErrOperationFailed}, &fulfillmentStub{})
		rec := get(t, s, "/pay/checkout?userId=u&planId=p&email=e")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "operation") {
			t.Error("internal error details leaked into the response")
		}
	})
}

func TestCallbackHandler(t *testing.T) {
	t.Run("should render the success page with fulfilled items", func(t *testing.T) {
		fulfillment := &fulfillmentStub{Result: &usecase.CallbackResult{
			TransactionID: "tx-1",
			Items: []usecase.FulfilledItem{{
				ProductID:    "prod-book",
				ProductName:  "Booklet B",
				Kind:         usecase.ItemKindBook,
				DownloadLink: "https://pay.example.com/pay/download/f.pdf?token=x",
				Password:     "312456789",
			}},
		}}
		s, _ := newTestServer(&checkoutStub{}, fulfillment)

		rec := get(t, s, "/pay/callback?Id=77123&CCode=0&Order=7b7d&Sign=abc&cell=050")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "postMessage({status: 'success'}") {
			t.Error("success page must notify the parent window")
		}
		if !strings.Contains(body, "Booklet B") {
			t.Error("fulfilled items missing from the page")
		}
		// Callback fields reach the use case, including the lowercase cell key.
		if fulfillment.Got.ID != "77123" || fulfillment.Got.Cell != "050" {
			t.Errorf("callback not parsed: %+v", fulfillment.Got)
		}
	})

	t.Run("should render a 200 failure page for a declined payment", func(t *testing.T) {
		s, _ := newTestServer(&checkoutStub{}, &fulfillmentStub{Err: domain.ErrPaymentDeclined})

		rec := get(t, s, "/pay/callback?Id=77123&CCode=6")
		if rec.Code != http.StatusOK {
			t.Fatalf("declined payments answer 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "postMessage({status: 'failed'}") {
			t.Error("failure page must notify the parent window")
		}
		if !strings.Contains(body, "Processor code: 6") {
			t.Error("the processor's raw code should appear on the declined page")
		}
	})

	t.Run("should answer 400 for verification failures", func(t *testing.T) {
		for _, err := range []error{
			domain.ErrSignatureMismatch,
			domain.ErrMalformedOrder,
			domain.ErrOrderSchema,
			domain.ErrPriceMismatch,
		} {
			s, _ := newTestServer(&checkoutStub{}, &fulfillmentStub{Err: err})
			if rec := get(t, s, "/pay/callback?Id=1"); rec.Code != http.StatusBadRequest {
				t.Errorf("%v: expected 400, got %d", err, rec.Code)
			}
		}
	})

	t.Run("should answer 404 for unresolvable references", func(t *testing.T) {
		for _, err := range []error{
			domain.ErrTransactionNotFound,
			domain.ErrPlanNotFound,
			domain.ErrCouponNotFound,
			domain.ErrProductNotFound,
		} {
			s, _ := newTestServer(&checkoutStub{}, &fulfillmentStub{Err: err})
			if rec := get(t, s, "/pay/callback?Id=1"); rec.Code != http.StatusNotFound {
				t.Errorf("%v: expected 404, got %d", err, rec.Code)
			}
		}
	})

	t.Run("should answer 500 without leaking config state", func(t *testing.T) {
		s, _ := newTestServer(&checkoutStub{}, &fulfillmentStub{Err: domain.ErrMissingSecret})
		rec := get(t, s, "/pay/callback?Id=1")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "secret") {
			t.Error("configuration details leaked into the response")
		}
	})

	t.Run("should render success for a legacy replay", func(t *testing.T) {
		s, _ := newTestServer(&checkoutStub{}, &fulfillmentStub{Result: &usecase.CallbackResult{
			Legacy: true, AlreadyProcessing: true,
		}})
		rec := get(t, s, "/pay/callback?Id=1&type=legacy")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "postMessage({status: 'success'}") {
			t.Error("a legacy replay must look like success on the wire")
		}
	})
}

func TestDownloadHandler(t *testing.T) {
	t.Run("should redirect to storage for a valid token", func(t *testing.T) {
		s, linker := newTestServer(&checkoutStub{}, &fulfillmentStub{})
		tok, err := linker.Mint("user-1_booklet_b.pdf")
		if err != nil {
			t.Fatalf("mint: %v", err)
		}

		rec := get(t, s, "/pay/download/user-1_booklet_b.pdf?token="+url.QueryEscape(tok))
		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		want := "https://storage.example.com/edu-docs/user-1_booklet_b.pdf"
		if loc := rec.Header().Get("Location"); loc != want {
			t.Errorf("expected redirect to %q, got %q", want, loc)
		}
	})

	t.Run("should refuse a token minted for another file", func(t *testing.T) {
		s, linker := newTestServer(&checkoutStub{}, &fulfillmentStub{})
		tok, _ := linker.Mint("someone-else.pdf")

		rec := get(t, s, "/pay/download/user-1_booklet_b.pdf?token="+url.QueryEscape(tok))
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("should refuse a missing or garbage token", func(t *testing.T) {
		s, _ := newTestServer(&checkoutStub{}, &fulfillmentStub{})
		if rec := get(t, s, "/pay/download/user-1_booklet_b.pdf"); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403 without a token, got %d", rec.Code)
		}
		if rec := get(t, s, "/pay/download/user-1_booklet_b.pdf?token=junk"); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403 for a junk token, got %d", rec.Code)
		}
	})
}
