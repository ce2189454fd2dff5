package gateway

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"edupay/internal/domain"
)

// OrderPayload is the opaque blob round-tripped through the processor
// unmodified. The transaction id is the only correlation key; the amount is
// re-verified server-side against the recomputed price.
type OrderPayload struct {
	TransactionID string
	Amount        int64 // minor currency units
}

// EncodeOrder serializes the payload to JSON, reinterprets each UTF-8 byte as
// a character (so bytes >= 0x80 re-encode as two UTF-8 bytes), and hex-encodes
// the result. The double round-trip matches the processor's decoder exactly;
// it is an identity for the ASCII payloads produced here but must be preserved
// for wire compatibility.
func EncodeOrder(p OrderPayload) (string, error) {
	raw, err := json.Marshal(map[string]interface{}{
		"transactionId": p.TransactionID,
		"amount":        p.Amount,
	})
	if err != nil {
		return "", fmt.Errorf("encode order: %w", err)
	}
	var buf bytes.Buffer
	for _, b := range raw {
		buf.WriteRune(rune(b))
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// DecodeOrder hex-decodes and JSON-parses the payload. Malformed hex or JSON
// is domain.ErrMalformedOrder; a structurally valid document missing the
// required fields (or carrying wrong types) is domain.ErrOrderSchema.
func DecodeOrder(hexStr string) (OrderPayload, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return OrderPayload{}, fmt.Errorf("%w: %v", domain.ErrMalformedOrder, err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return OrderPayload{}, fmt.Errorf("%w: %v", domain.ErrMalformedOrder, err)
	}

	txID, ok := doc["transactionId"].(string)
	if !ok || txID == "" {
		return OrderPayload{}, fmt.Errorf("%w: transactionId", domain.ErrOrderSchema)
	}
	amt, ok := doc["amount"].(float64)
	if !ok || amt != math.Trunc(amt) {
		return OrderPayload{}, fmt.Errorf("%w: amount", domain.ErrOrderSchema)
	}
	return OrderPayload{TransactionID: txID, Amount: int64(amt)}, nil
}
