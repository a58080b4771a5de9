package cart

// Subtotal is Σ price × quantity over all lines.
func Subtotal(s State) int64 {
	var total int64
	for _, l := range s.Items {
		total += l.LineTotal()
	}
	return total
}

// TotalItemCount is Σ quantity over all lines.
func TotalItemCount(s State) int {
	count := 0
	for _, l := range s.Items {
		count += l.Quantity
	}
	return count
}

// Total is the subtotal minus the voucher discount, floored at 0.
func Total(s State) int64 {
	total := Subtotal(s) - s.VoucherDiscount
	if total < 0 {
		return 0
	}
	return total
}

// Summary is the state plus its derived values, as served to the UI.
type Summary struct {
	State
	Subtotal  int64 `json:"subtotal"`
	ItemCount int   `json:"itemCount"`
	Total     int64 `json:"total"`
}

func Summarize(s State) Summary {
	return Summary{
		State:     s,
		Subtotal:  Subtotal(s),
		ItemCount: TotalItemCount(s),
		Total:     Total(s),
	}
}
