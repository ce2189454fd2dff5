package gateway

import (
	"fmt"
	"strconv"

	"edupay/internal/config"
)

// BuildRedirectURL assembles the signed hosted-payment-page URL the browser
// is sent to. The signature covers the sorted, RFC3986-escaped parameter set
// (excluding the signature parameter itself) and is appended last.
func BuildRedirectURL(cfg config.GatewayConfig, orderHex string, amount int64, description string) (string, error) {
	fields := []Field{
		{"action", "pay"},
		{"Masof", cfg.MerchantID},
		{"Info", description},
		{"UTF8", "True"},
		{"UTF8out", "True"},
		{"Amount", strconv.FormatInt(amount, 10)},
		{"Order", orderHex},
		{"PageLang", cfg.PageLang},
	}
	canonical := Canonicalize(fields, true)
	sig, err := Sign(canonical, cfg.Secret)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s?%s&signature=%s", cfg.PayURL, canonical, sig), nil
}
