package portfolio

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
)

// Lookback periods in days.
const (
	dailyDays   = 1
	weeklyDays  = 7
	monthlyDays = 30
	yearlyDays  = 365
)

// computePerformance compares totalValue against the invested amount (overall)
// and against the nearest snapshot dated strictly before now - N days for each
// period, so daily compares against yesterday's snapshot. A period without such a snapshot reports the overall figure and
// records BasisOverall.
func (s *Service) computePerformance(ctx context.Context, userID string, totalValue, invested float64, now time.Time) (models.Performance, models.PerformanceBasis) {
	perf := models.Performance{Overall: percentChange(totalValue, invested)}
	var basis models.PerformanceBasis

	periods := []struct {
		days  int
		value *float64
		basis *string
	}{
		{dailyDays, &perf.Daily, &basis.Daily},
		{weeklyDays, &perf.Weekly, &basis.Weekly},
		{monthlyDays, &perf.Monthly, &basis.Monthly},
		{yearlyDays, &perf.Yearly, &basis.Yearly},
	}

	for _, p := range periods {
		ref, err := s.storage.HistoryStore().FindBefore(ctx, userID, now.AddDate(0, 0, -p.days))
		if err != nil {
			if !errors.Is(err, common.ErrNotFound) {
				s.logger.Warn().Err(err).Str("user_id", userID).Int("days", p.days).Msg("Reference snapshot lookup failed")
			}
			*p.value = perf.Overall
			*p.basis = models.BasisOverall
			continue
		}
		*p.value = percentChange(totalValue, ref.TotalValue)
		*p.basis = ref.Day
	}

	return perf, basis
}
