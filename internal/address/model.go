package address

import "strings"

// ShippingAddress is the delivery target typed at checkout. DistrictID and
// WardCode are the carrier's codes for the selected district and ward.
type ShippingAddress struct {
	Name       string `json:"name" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"required,vnphone"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Street     string `json:"address" validate:"required,max=255"`
	Province   string `json:"province" validate:"required"`
	District   string `json:"district" validate:"required"`
	Ward       string `json:"ward" validate:"required"`
	DistrictID int    `json:"districtId" validate:"required,gt=0"`
	WardCode   string `json:"wardCode" validate:"required"`
}

// Normalize trims every field and rewrites +84 phones to the 0 prefix.
func (a ShippingAddress) Normalize() ShippingAddress {
	a.Name = strings.TrimSpace(a.Name)
	a.Phone = NormalizePhone(a.Phone)
	a.Email = strings.TrimSpace(a.Email)
	a.Street = strings.TrimSpace(a.Street)
	a.Province = strings.TrimSpace(a.Province)
	a.District = strings.TrimSpace(a.District)
	a.Ward = strings.TrimSpace(a.Ward)
	a.WardCode = strings.TrimSpace(a.WardCode)
	return a
}

func NormalizePhone(phone string) string {
	p := strings.Map(func(r rune) rune {
		if r == ' ' || r == '.' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(phone))

	switch {
	case strings.HasPrefix(p, "+84"):
		p = "0" + p[3:]
	case strings.HasPrefix(p, "84") && len(p) == 11:
		p = "0" + p[2:]
	}
	return p
}
