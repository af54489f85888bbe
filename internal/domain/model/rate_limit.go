package model

import "time"

// ActionCreateInvoice tags invoice/shift creation attempts for rate limiting.
const ActionCreateInvoice = "create_invoice"

// RateLimitRecord is one admitted attempt. Records are append-only.
type RateLimitRecord struct {
	ID        int64
	Origin    string
	Action    string
	CreatedAt time.Time
}
