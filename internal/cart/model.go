package cart

// Key identifies a line: one product, optionally narrowed to a variant.
type Key struct {
	ProductID string
	VariantID string
}

// Line is one distinct product+variant entry of the cart.
// Prices are whole VND.
type Line struct {
	ProductID     string `json:"productId"`
	VariantID     string `json:"variantId,omitempty"`
	Name          string `json:"name"`
	VariantLabel  string `json:"variantLabel,omitempty"`
	Image         string `json:"image,omitempty"`
	Price         int64  `json:"price"`
	OriginalPrice *int64 `json:"originalPrice,omitempty"`
	Quantity      int    `json:"quantity"`
	MaxQuantity   int    `json:"maxQuantity"`
	SKU           string `json:"sku,omitempty"`
}

func (l Line) Key() Key {
	return Key{ProductID: l.ProductID, VariantID: l.VariantID}
}

// LineTotal is price × quantity.
func (l Line) LineTotal() int64 {
	return l.Price * int64(l.Quantity)
}

// State is exactly what gets persisted to the shopper's slot.
type State struct {
	Items           []Line  `json:"items"`
	VoucherCode     *string `json:"voucherCode"`
	VoucherDiscount int64   `json:"voucherDiscount"`
}

func (s State) clone() State {
	out := State{
		Items:           make([]Line, len(s.Items)),
		VoucherDiscount: s.VoucherDiscount,
	}
	copy(out.Items, s.Items)
	for i := range out.Items {
		if p := out.Items[i].OriginalPrice; p != nil {
			v := *p
			out.Items[i].OriginalPrice = &v
		}
	}
	if s.VoucherCode != nil {
		code := *s.VoucherCode
		out.VoucherCode = &code
	}
	return out
}

func (s State) indexOf(k Key) int {
	for i, l := range s.Items {
		if l.Key() == k {
			return i
		}
	}
	return -1
}

// AddResult tells the caller what AddItem actually did.
type AddResult struct {
	Line      Line `json:"line"`
	Requested int  `json:"requested"`
	Added     int  `json:"added"`
	Clamped   bool `json:"clamped"`
}
