package voucher

import (
	"context"
	"strings"

	"storefront-be/internal/backend"
	"storefront-be/internal/cart"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

type Outcome string

const (
	Applied     Outcome = "applied"
	Rejected    Outcome = "rejected"
	Unavailable Outcome = "unavailable"
)

const (
	MsgUnavailable = "cannot apply voucher"
	MsgApplied     = "voucher applied"
	MsgEmptyCode   = "voucher code is required"
	MsgInvalid     = "voucher is not valid"
)

// Result is what the shopper sees after submitting a code.
type Result struct {
	Outcome  Outcome `json:"outcome"`
	Code     string  `json:"code,omitempty"`
	Discount int64   `json:"discount"`
	Message  string  `json:"message"`
}

type Resolver interface {
	Apply(ctx context.Context, store *cart.Store, code string) Result
	Remove(ctx context.Context, store *cart.Store)
}

type resolver struct {
	client backend.Client
}

func NewResolver(client backend.Client) Resolver {
	return &resolver{client: client}
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *resolver) Apply(ctx context.Context, store *cart.Store, code string) Result {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Voucher.Apply"),
	)

	code = NormalizeCode(code)
	if code == "" {
		return Result{Outcome: Rejected, Message: MsgEmptyCode}
	}

	subtotal := store.Subtotal()
	res, err := r.client.ValidateVoucher(ctx, backend.ValidateVoucherRequest{
		Code:     code,
		Subtotal: subtotal,
	})
	if err != nil {
		if apiErr, ok := backend.AsRejection(err); ok && apiErr.Message != "" {
			log.Info("voucher rejected by backend",
				zap.String("code", code),
				zap.Int("status", apiErr.StatusCode),
			)
			return Result{Outcome: Rejected, Code: code, Message: apiErr.Message}
		}
		log.Warn("voucher validation failed", zap.String("code", code), zap.Error(err))
		return Result{Outcome: Unavailable, Code: code, Message: MsgUnavailable}
	}

	if !res.Valid {
		msg := res.Message
		if msg == "" {
			msg = MsgInvalid
		}
		log.Info("voucher not valid", zap.String("code", code))
		return Result{Outcome: Rejected, Code: code, Message: msg}
	}

	store.ApplyVoucher(ctx, code, res.Discount)

	msg := res.Message
	if msg == "" {
		msg = MsgApplied
	}
	log.Info("voucher applied",
		zap.String("code", code),
		zap.Int64("subtotal", subtotal),
		zap.Int64("discount", res.Discount),
	)
	return Result{Outcome: Applied, Code: code, Discount: res.Discount, Message: msg}
}

func (r *resolver) Remove(ctx context.Context, store *cart.Store) {
	store.RemoveVoucher(ctx)
}
