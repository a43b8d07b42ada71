package bill

import "time"

// Item is a single line item on a bill. The ID is generated when the bill
// is built so that two items sharing a name (two sodas) keep independent
// allocations.
type Item struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int    `json:"price_cents"`
}

// Bill represents an extracted and user-editable bill. Amounts are in cents.
// Subtotal is independently editable and is never derived from the items;
// Total is derived from the other three fields through Recalculate.
type Bill struct {
	Items         []Item `json:"items"`
	SubtotalCents int    `json:"subtotal_cents"`
	TaxCents      int    `json:"tax_cents"`
	TipCents      int    `json:"tip_cents"`
	TotalCents    int    `json:"total_cents"`
}

// Recalculate sets the total from subtotal, tax and tip, replacing whatever
// total the extraction reported.
func (b *Bill) Recalculate() {
	b.TotalCents = b.SubtotalCents + b.TaxCents + b.TipCents
}

// Session holds one user's in-progress bill split: the participant names,
// the current bill (nil until an image has been analyzed), and the
// allocation of items to participants keyed by item ID.
type Session struct {
	ID           string              `json:"id"`
	Participants []string            `json:"participants"`
	Bill         *Bill               `json:"bill,omitempty"`
	Allocations  map[string][]string `json:"allocations,omitempty"`
	ImageFile    string              `json:"image_file,omitempty"`
	ImageType    string              `json:"image_type,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}
