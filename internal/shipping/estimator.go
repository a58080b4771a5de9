package shipping

import (
	"context"
	"strings"

	"storefront-be/internal/backend"
	"storefront-be/internal/cart"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"

	"go.uber.org/zap"
)

const (
	GramsPerItem         = 500
	MinWeight            = 500
	DefaultFallbackFee   = 30000
	DefaultServiceTypeID = 2
)

type Source string

const (
	SourceCarrier  Source = "carrier"
	SourceFallback Source = "fallback"
)

// Destination is the carrier's district/ward pair for the selected address.
type Destination struct {
	DistrictID int    `json:"districtId"`
	WardCode   string `json:"wardCode"`
}

func (d Destination) Valid() bool {
	return d.DistrictID > 0 && strings.TrimSpace(d.WardCode) != ""
}

type Quote struct {
	Fee          int64  `json:"fee"`
	ServiceFee   int64  `json:"serviceFee"`
	InsuranceFee int64  `json:"insuranceFee"`
	Source       Source `json:"source"`
	Weight       int    `json:"weight"`
	Err          error  `json:"-"`
}

type Estimator struct {
	client        backend.Client
	fallbackFee   int64
	serviceTypeID int
	stats         *metrics.Checkout
}

type Option func(*Estimator)

func WithFallbackFee(fee int64) Option {
	return func(e *Estimator) {
		if fee > 0 {
			e.fallbackFee = fee
		}
	}
}

func WithServiceTypeID(id int) Option {
	return func(e *Estimator) {
		if id > 0 {
			e.serviceTypeID = id
		}
	}
}

func WithMetrics(m *metrics.Checkout) Option {
	return func(e *Estimator) { e.stats = m }
}

func NewEstimator(client backend.Client, opts ...Option) *Estimator {
	e := &Estimator{
		client:        client,
		fallbackFee:   DefaultFallbackFee,
		serviceTypeID: DefaultServiceTypeID,
		stats:         &metrics.Checkout{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Weight is 500g per unit, never below 500g.
func Weight(lines []cart.Line) int {
	w := 0
	for _, l := range lines {
		w += l.Quantity * GramsPerItem
	}
	if w < MinWeight {
		return MinWeight
	}
	return w
}

// Estimate asks the carrier for a fee. It never fails: any problem yields
// the flat fallback fee with the cause kept on Quote.Err.
func (e *Estimator) Estimate(ctx context.Context, dest Destination, lines []cart.Line, insuredValue int64) Quote {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Shipping.Estimate"),
	)

	weight := Weight(lines)
	if !dest.Valid() {
		log.Debug("destination incomplete, using fallback fee", zap.Int("district_id", dest.DistrictID))
		return e.fallback(weight, ErrInvalidDestination)
	}
	if insuredValue < 0 {
		insuredValue = 0
	}

	res, err := e.client.CalculateShippingFee(ctx, backend.ShippingFeeRequest{
		ToDistrictID:   dest.DistrictID,
		ToWardCode:     dest.WardCode,
		Weight:         weight,
		InsuranceValue: insuredValue,
		ServiceTypeID:  e.serviceTypeID,
	})
	if err != nil {
		log.Warn("shipping fee lookup failed, using fallback fee",
			zap.Int("district_id", dest.DistrictID),
			zap.String("ward_code", dest.WardCode),
			zap.Error(err),
		)
		return e.fallback(weight, err)
	}

	return Quote{
		Fee:          res.Total,
		ServiceFee:   res.ServiceFee,
		InsuranceFee: res.InsuranceFee,
		Source:       SourceCarrier,
		Weight:       weight,
	}
}

func (e *Estimator) fallback(weight int, cause error) Quote {
	e.stats.ShippingFallbacks.Inc()
	return Quote{
		Fee:    e.fallbackFee,
		Source: SourceFallback,
		Weight: weight,
		Err:    cause,
	}
}
