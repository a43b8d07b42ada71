package scanning

import "context"

// BillItem is a single line item read off a bill.
type BillItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// BillData contains the line items and totals extracted from a bill image.
// Amounts are dollar values exactly as the model reported them; arithmetic
// consistency (subtotal vs. sum of items) is not checked here.
type BillData struct {
	Items    []BillItem `json:"items"`
	Subtotal float64    `json:"subtotal"`
	Tax      float64    `json:"tax"`
	Tip      float64    `json:"tip"`
	Total    float64    `json:"total"`
}

// Scanner defines the interface for bill scanning operations
type Scanner interface {
	// ScanBill analyzes a bill image/PDF and extracts line items and totals.
	// The caller owns the deadline; a single attempt is made, no retries.
	ScanBill(ctx context.Context, imageData []byte, contentType string) (*BillData, error)
	// Close closes the scanner and releases resources
	Close() error
}
