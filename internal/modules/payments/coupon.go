// Package payments holds the gate that unlocks paid checkups.
// The checkup service only reads the status this package writes.
package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/rs/zerolog"
)

// StatusStore is the slice of the checkup repository the gate needs
type StatusStore interface {
	GetByID(ctx context.Context, id string) (*domain.Checkup, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
}

// CouponGate marks checkups paid when a configured coupon code is redeemed
type CouponGate struct {
	store   StatusStore
	coupons map[string]bool
	log     zerolog.Logger
}

// NewCouponGate creates a gate accepting codes (matched case-insensitively)
func NewCouponGate(store StatusStore, codes []string, log zerolog.Logger) *CouponGate {
	coupons := make(map[string]bool, len(codes))
	for _, code := range codes {
		if code = normalize(code); code != "" {
			coupons[code] = true
		}
	}
	return &CouponGate{
		store:   store,
		coupons: coupons,
		log:     log.With().Str("service", "payments").Logger(),
	}
}

// Redeem validates code and flips the checkup from preview to paid.
// Redeeming on a checkup that is already paid or done is a no-op.
func (g *CouponGate) Redeem(ctx context.Context, checkupID, code string) (domain.Status, error) {
	if !g.coupons[normalize(code)] {
		g.log.Warn().Str("checkup_id", checkupID).Msg("Invalid coupon")
		return "", domain.ErrInvalidCoupon
	}

	c, err := g.store.GetByID(ctx, checkupID)
	if err != nil {
		return "", err
	}
	if c.Status != domain.StatusPreview {
		return c.Status, nil
	}

	if err := g.store.UpdateStatus(ctx, checkupID, domain.StatusPaid); err != nil {
		return "", fmt.Errorf("failed to mark checkup %s paid: %w", checkupID, err)
	}

	g.log.Info().Str("checkup_id", checkupID).Msg("Coupon redeemed")
	return domain.StatusPaid, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
