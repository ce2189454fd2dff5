// Package gateway implements the hosted-payment-page processor's wire
// protocol: query-string canonicalization, HMAC-SHA256 signing, and the
// hex-encoded order payload round-tripped through the processor.
package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"edupay/internal/domain"
)

// Field is one name/value pair of the canonical string. Order matters on the
// callback side, so fields travel as a slice, never a map.
type Field struct {
	Name  string
	Value string
}

const upperhex = "0123456789ABCDEF"

// escape percent-encodes everything outside the RFC3986 unreserved set.
// Stricter than encodeURIComponent: `! ' ( ) *` are escaped too, which is
// what the processor computes the signature over.
func escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') ||
			c == '-' || c == '_' || c == '.' || c == '~' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0xF])
	}
	return b.String()
}

// Canonicalize joins fields as name=value pairs with &, escaping values.
// When sorted is true the fields are ordered by name (outbound redirect);
// otherwise the given order is preserved (inbound callback, whose signing
// order is protocol-mandated and NOT alphabetical).
func Canonicalize(fields []Field, sorted bool) string {
	fs := fields
	if sorted {
		fs = make([]Field, len(fields))
		copy(fs, fields)
		sort.SliceStable(fs, func(i, j int) bool { return fs[i].Name < fs[j].Name })
	}
	parts := make([]string, 0, len(fs))
	for _, f := range fs {
		parts = append(parts, f.Name+"="+escape(f.Value))
	}
	return strings.Join(parts, "&")
}

// Sign computes the hex HMAC-SHA256 of the canonical string.
func Sign(canonical, secret string) (string, error) {
	if secret == "" {
		return "", domain.ErrMissingSecret
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(canonical))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify recomputes the signature and compares in constant time.
// A missing secret fails closed.
func Verify(canonical, providedHex, secret string) (bool, error) {
	expected, err := Sign(canonical, secret)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(providedHex))), nil
}
