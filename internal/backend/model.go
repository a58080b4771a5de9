package backend

import (
	"bytes"
	"encoding/json"
	"strings"
)

type ValidateVoucherRequest struct {
	Code     string `json:"code"`
	Subtotal int64  `json:"subtotal"`
}

type ValidateVoucherResponse struct {
	Valid    bool   `json:"valid"`
	Discount int64  `json:"discount"`
	Message  string `json:"message"`
}

type ShippingFeeRequest struct {
	ToDistrictID   int    `json:"toDistrictId"`
	ToWardCode     string `json:"toWardCode"`
	Weight         int    `json:"weight"`
	InsuranceValue int64  `json:"insuranceValue"`
	ServiceTypeID  int    `json:"serviceTypeId"`
}

type ShippingFeeResponse struct {
	Total        int64 `json:"total"`
	ServiceFee   int64 `json:"serviceFee"`
	InsuranceFee int64 `json:"insuranceFee"`
}

const PaymentStatusPaid = "PAID"

type OrderTracking struct {
	OrderNumber       string `json:"orderNumber,omitempty"`
	Status            string `json:"status,omitempty"`
	Total             int64  `json:"total"`
	PaymentStatus     string `json:"paymentStatus"`
	PaymentMethod     string `json:"paymentMethod,omitempty"`
	BankBin           string `json:"bankBin,omitempty"`
	BankAccountNumber string `json:"bankAccountNumber,omitempty"`
	BankAccountName   string `json:"bankAccountName,omitempty"`
	BankName          string `json:"bankName,omitempty"`
	TransferContent   string `json:"transferContent,omitempty"`
}

func (t *OrderTracking) IsPaid() bool {
	return t != nil && strings.EqualFold(strings.TrimSpace(t.PaymentStatus), PaymentStatusPaid)
}

type OrderItem struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

type CreateOrderRequest struct {
	Items []OrderItem `json:"items"`

	ShippingName       string `json:"shippingName"`
	ShippingPhone      string `json:"shippingPhone"`
	ShippingEmail      string `json:"shippingEmail,omitempty"`
	ShippingAddress    string `json:"shippingAddress"`
	ShippingProvince   string `json:"shippingProvince,omitempty"`
	ShippingDistrict   string `json:"shippingDistrict,omitempty"`
	ShippingWard       string `json:"shippingWard,omitempty"`
	ShippingDistrictID int    `json:"shippingDistrictId"`
	ShippingWardCode   string `json:"shippingWardCode"`
	ShippingFee        int64  `json:"shippingFee"`
	Note               string `json:"note,omitempty"`

	PaymentMethod  string  `json:"paymentMethod"`
	VoucherCode    *string `json:"voucherCode,omitempty"`
	PointsToRedeem *int    `json:"pointsToRedeem,omitempty"`
}

// ID accepts both JSON strings and numbers; backends disagree on order ids.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

type CreatedOrder struct {
	ID          ID     `json:"id"`
	OrderNumber string `json:"orderNumber"`
}
