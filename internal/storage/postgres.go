package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

// PostgresSlot stores carts in the cart_slots table (see migrations/).
type PostgresSlot struct {
	db *sql.DB
}

func NewPostgresSlot(db *sql.DB) *PostgresSlot {
	return &PostgresSlot{db: db}
}

func (p *PostgresSlot) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT payload
		FROM cart_slots
		WHERE slot_key = $1
	`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart slot: %w", err)
	}
	return payload, nil
}

func (p *PostgresSlot) Save(ctx context.Context, key string, data []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO cart_slots (slot_key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (slot_key)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`, key, string(data))
	if err != nil {
		logger.FromCtx(ctx).Error("cart slot upsert failed",
			zap.String("layer", "repository"),
			zap.String("slot", key),
			zap.Error(err),
		)
		return fmt.Errorf("save cart slot: %w", err)
	}
	return nil
}
