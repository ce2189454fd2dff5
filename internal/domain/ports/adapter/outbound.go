package adapter

import "context"

// InvoicingClient issues a receipt with the external invoicing API.
// Best-effort: a failure is logged, never surfaced to the payer.
type InvoicingClient interface {
	IssueReceipt(ctx context.Context, rcpt Receipt) error
}

type Receipt struct {
	TransactionID string
	Email         string
	CustomerName  string
	PersonalID    string // receipt identifier on the invoice
	Amount        int64  // minor currency units
	Description   string
}

// Mailer delivers the download-ready notification.
type Mailer interface {
	SendDownloadReady(ctx context.Context, m DownloadMail) error
}

type DownloadMail struct {
	To           string
	StudentName  string
	ProductName  string
	DownloadLink string
	Password     string // the payer personal id, verbatim
}

// ConverterClient triggers the external document-rendering pipeline.
// Fire-and-forget: correctness never depends on it.
type ConverterClient interface {
	TriggerConversion(ctx context.Context, userID, productID string) error
}

// AnalyticsClient posts funnel events. Explicitly constructed and injected;
// never a process-wide singleton. Failures must not block checkout.
type AnalyticsClient interface {
	Emit(ctx context.Context, event string, props map[string]string)
}
