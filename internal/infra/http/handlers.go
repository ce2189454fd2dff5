package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"edupay/internal/domain"
	"edupay/internal/gateway"
	"edupay/internal/infra/logging"
	"edupay/internal/infra/metrics"
	"edupay/internal/usecase"
)

// handleCheckout validates the purchase request and redirects the browser to
// the processor's hosted payment page.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var couponID *string
	if c := q.Get("couponId"); c != "" {
		couponID = &c
	}
	req := usecase.CheckoutRequest{
		UserID:       q.Get("userId"),
		PlanID:       q.Get("planId"),
		Email:        q.Get("email"),
		StudentName:  q.Get("studentName"),
		Phone:        q.Get("phone"),
		CouponID:     couponID,
		BookIncluded: q.Get("bookIncluded") == "true",
	}

	res, err := s.checkoutUC.Initiate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "Missing or invalid checkout fields", http.StatusBadRequest)
		case errors.Is(err, domain.ErrPlanNotFound):
			http.Error(w, "Plan not found", http.StatusNotFound)
		default:
			logging.With(r.Context(), s.log).Error().Err(err).Msg("checkout failed")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	if res.AlreadyPurchased {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = renderAlreadyPurchased(w, res.DownloadLink, res.Password)
		return
	}

	http.Redirect(w, r, res.RedirectURL, http.StatusSeeOther)
}

// handleCallback services the processor's unauthenticated redirect-back. The
// response is always a self-contained HTML page; the error taxonomy decides
// which one and with what status.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cb := gateway.ParseCallback(r.URL.Query())

	res, err := s.fulfillmentUC.HandleCallback(r.Context(), cb)
	if err != nil {
		s.renderCallbackError(w, r, cb, err)
		metrics.CallbackDuration.WithLabelValues("fail").Observe(time.Since(start).Seconds())
		return
	}

	metrics.CallbackRequests.WithLabelValues("ok", "").Inc()
	metrics.CallbackDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if res.AlreadyProcessing {
		// Legacy replay: indistinguishable from success on the wire.
		_ = renderSuccess(w, nil)
		return
	}
	_ = renderSuccess(w, res.Items)
}

func (s *Server) renderCallbackError(w http.ResponseWriter, r *http.Request, cb gateway.Callback, err error) {
	l := logging.With(r.Context(), s.log)

	reason := "unknown"
	status := http.StatusInternalServerError
	message := "Your payment could not be processed."

	switch {
	case errors.Is(err, domain.ErrPaymentDeclined):
		// Declined by the processor: user-facing failure page with the raw
		// code, HTTP 200, no persistence happened.
		metrics.CallbackRequests.WithLabelValues("fail", "declined").Inc()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = renderFailure(w, "The payment was declined.", cb.CCode)
		return
	case errors.Is(err, domain.ErrSignatureMismatch):
		reason, status = "bad_signature", http.StatusBadRequest
		l.Warn().Str("processor_id", cb.ID).Msg("callback rejected: signature mismatch")
	case errors.Is(err, domain.ErrMalformedOrder):
		reason, status = "bad_order", http.StatusBadRequest
	case errors.Is(err, domain.ErrOrderSchema):
		reason, status = "bad_schema", http.StatusBadRequest
	case errors.Is(err, domain.ErrPriceMismatch):
		reason, status = "price_mismatch", http.StatusBadRequest
		l.Warn().Str("processor_id", cb.ID).Msg("callback rejected: price mismatch")
	case errors.Is(err, domain.ErrTransactionNotFound):
		reason, status, message = "tx_not_found", http.StatusNotFound, "Transaction not found."
	case errors.Is(err, domain.ErrPlanNotFound):
		reason, status, message = "plan_not_found", http.StatusNotFound, "Plan not found."
	case errors.Is(err, domain.ErrCouponNotFound):
		reason, status, message = "coupon_not_found", http.StatusNotFound, "Coupon not found."
	case errors.Is(err, domain.ErrProductNotFound):
		reason, status, message = "product_not_found", http.StatusNotFound, "Product not found."
	case errors.Is(err, domain.ErrMissingSecret):
		reason = "config"
		l.Error().Msg("callback rejected: signing secret not configured")
	default:
		l.Error().Err(err).Msg("callback processing failed")
	}

	metrics.CallbackRequests.WithLabelValues("fail", reason).Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	// Tamper and config details stay out of the page body.
	_ = renderFailure(w, message, "")
}

// handleDownload verifies the signed token and hands the browser to the
// storage front-end for the actual bytes.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	fileName := chi.URLParam(r, "file")
	tokenFile, err := s.linker.Verify(r.URL.Query().Get("token"))
	if err != nil || tokenFile != fileName {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	target := fmt.Sprintf("%s/%s/%s", s.storagePublicURL, s.bucket, fileName)
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
