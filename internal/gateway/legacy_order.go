package gateway

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"edupay/internal/domain"
)

// LegacyOrderPayload is the pre-ledger order shape: keyed by email, with no
// transaction id. Still delivered by the processor for checkouts created
// before the cutover, so decoding must stay in place indefinitely.
type LegacyOrderPayload struct {
	Email       string
	PlanID      string
	Amount      int64
	StudentName string
}

// DecodeLegacyOrder parses the legacy order payload, sharing the new shape's
// hex/JSON handling and error taxonomy.
func DecodeLegacyOrder(hexStr string) (LegacyOrderPayload, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return LegacyOrderPayload{}, fmt.Errorf("%w: %v", domain.ErrMalformedOrder, err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return LegacyOrderPayload{}, fmt.Errorf("%w: %v", domain.ErrMalformedOrder, err)
	}

	email, ok := doc["email"].(string)
	if !ok || email == "" {
		return LegacyOrderPayload{}, fmt.Errorf("%w: email", domain.ErrOrderSchema)
	}
	planID, ok := doc["planId"].(string)
	if !ok || planID == "" {
		return LegacyOrderPayload{}, fmt.Errorf("%w: planId", domain.ErrOrderSchema)
	}
	amt, ok := doc["amount"].(float64)
	if !ok || amt != math.Trunc(amt) {
		return LegacyOrderPayload{}, fmt.Errorf("%w: amount", domain.ErrOrderSchema)
	}
	studentName, _ := doc["studentName"].(string)

	return LegacyOrderPayload{
		Email:       email,
		PlanID:      planID,
		Amount:      int64(amt),
		StudentName: studentName,
	}, nil
}
