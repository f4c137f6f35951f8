package jobs

import (
	"context"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/logger"
)

// SnapshotDailyRevenue logs the previous UTC day's takings from the payment
// ledger.
func (jr *JobRunner) SnapshotDailyRevenue() {
	jr.runWithRecovery("SnapshotDailyRevenue", func() {
		ctx := context.Background()
		if _, err := jr.dailyRevenue(ctx); err != nil {
			logger.Error("Failed to snapshot daily revenue", "error", err)
		}
	})
}

func (jr *JobRunner) dailyRevenue(ctx context.Context) (*domain.PaymentStats, error) {
	today := jr.now().UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -1)
	to := today.Add(-time.Nanosecond)

	stats, err := jr.services.Payment.GetPaymentStats(ctx, &from, &to)
	if err != nil {
		return nil, err
	}

	currency := jr.config.Billing.Currency
	logger.Info("Daily revenue snapshot",
		"date", from.Format("2006-01-02"),
		"currency", currency,
		"payments", stats.TotalPayments,
		"revenue", stats.TotalRevenue.StringFixed(2),
		"tax", stats.TotalTax.StringFixed(2),
		"cash", stats.CashPayments.StringFixed(2),
		"card", stats.CardPayments.StringFixed(2),
		"wallet", stats.WalletPayments.StringFixed(2))
	return stats, nil
}
