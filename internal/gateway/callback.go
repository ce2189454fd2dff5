package gateway

import (
	"net/url"
)

// Callback is the redirect-back request from the processor, parsed from the
// query string. No session context exists; everything must be verified from
// these fields alone.
type Callback struct {
	ID     string // processor transaction id
	CCode  string // result code; "000" and "0" mean approved
	Amount string
	ACode  string // approval code
	Order  string // hex order payload
	Fild1  string
	Fild2  string
	Fild3  string
	Cell   string
	Sign   string // provided signature

	// Side-channel fields, excluded from signature verification.
	UserID  string // payer personal id; doubles as the document password
	Issuer  string
	L4Digit string
	Info    string

	// Legacy discriminant. Non-empty routes to the pre-ledger adapter.
	Type string
}

// ParseCallback extracts the callback fields from a query string.
func ParseCallback(q url.Values) Callback {
	return Callback{
		ID:      q.Get("Id"),
		CCode:   q.Get("CCode"),
		Amount:  q.Get("Amount"),
		ACode:   q.Get("ACode"),
		Order:   q.Get("Order"),
		Fild1:   q.Get("Fild1"),
		Fild2:   q.Get("Fild2"),
		Fild3:   q.Get("Fild3"),
		Cell:    q.Get("cell"),
		Sign:    q.Get("Sign"),
		UserID:  q.Get("UserId"),
		Issuer:  q.Get("Issuer"),
		L4Digit: q.Get("L4digit"),
		Info:    q.Get("Info"),
		Type:    q.Get("type"),
	}
}

// Approved reports whether the processor's result code means success.
func (c Callback) Approved() bool { return c.CCode == "000" || c.CCode == "0" }

// SignedFields returns the protocol-mandated verification subset in its fixed
// order. The callback signature covers exactly these, NOT the full query
// string, and the order is not alphabetical.
func (c Callback) SignedFields() []Field {
	return []Field{
		{"Id", c.ID},
		{"CCode", c.CCode},
		{"Amount", c.Amount},
		{"ACode", c.ACode},
		{"Order", c.Order},
		{"Fild1", c.Fild1},
		{"Fild2", c.Fild2},
		{"Fild3", c.Fild3},
	}
}

// VerifySignature rebuilds the canonical string from the fixed field subset
// and compares the provided signature in constant time.
func (c Callback) VerifySignature(secret string) (bool, error) {
	canonical := Canonicalize(c.SignedFields(), false)
	return Verify(canonical, c.Sign, secret)
}
