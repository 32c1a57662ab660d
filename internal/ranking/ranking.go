package ranking

import (
	"sort"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

// Rank orders deals by percent drop descending, then price ascending, then
// score descending, and truncates to limit. Nil drop and nil score rank as
// 0; the sort is stable, so full ties keep their input order.
func Rank(deals []models.Deal, limit int) []models.Deal {
	sort.SliceStable(deals, func(i, j int) bool {
		di, dj := pctDrop(deals[i]), pctDrop(deals[j])
		if di != dj {
			return di > dj
		}
		if deals[i].PriceTotal != deals[j].PriceTotal {
			return deals[i].PriceTotal < deals[j].PriceTotal
		}
		return score(deals[i]) > score(deals[j])
	})

	if limit > 0 && len(deals) > limit {
		deals = deals[:limit]
	}
	return deals
}

func pctDrop(d models.Deal) float64 {
	if d.PricePctDrop == nil {
		return 0
	}
	return *d.PricePctDrop
}

func score(d models.Deal) int {
	if d.Score == nil {
		return 0
	}
	return *d.Score
}
