package address

import (
	"storefront-be/internal/backend"
	"storefront-be/internal/shipping"
)

func (a ShippingAddress) Destination() shipping.Destination {
	return shipping.Destination{
		DistrictID: a.DistrictID,
		WardCode:   a.WardCode,
	}
}

// ApplyTo copies the address onto the flat shipping* fields of an order.
func (a ShippingAddress) ApplyTo(req *backend.CreateOrderRequest) {
	req.ShippingName = a.Name
	req.ShippingPhone = a.Phone
	req.ShippingEmail = a.Email
	req.ShippingAddress = a.Street
	req.ShippingProvince = a.Province
	req.ShippingDistrict = a.District
	req.ShippingWard = a.Ward
	req.ShippingDistrictID = a.DistrictID
	req.ShippingWardCode = a.WardCode
}
