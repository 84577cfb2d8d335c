// Package pricing computes itemized quotes from pre-validated inputs. Every
// function here is pure: no I/O, no shared state, identical inputs always
// produce the identical breakdown, which is what lets a stored quote be
// recomputed exactly for disputes and receipts.
package pricing

import (
	"math"

	"github.com/example/errand-core/internal/models"
)

// Delivery prices a single-stop delivery. Zero distance still charges the
// base fare; unknown enum members carry a zero surcharge.
func Delivery(p Policy, distanceKm float64, weather models.WeatherCondition, timeCond models.TimeCondition, weight models.WeightClass) models.PriceBreakdown {
	b := models.PriceBreakdown{
		BaseFare:         p.BaseFare,
		DistanceFee:      distanceFee(p, distanceKm),
		WeatherSurcharge: p.WeatherSurcharges[weather],
		TimeSurcharge:    p.TimeSurcharges[timeCond],
		WeightSurcharge:  p.WeightSurcharges[weight],
	}
	b.Total = b.Sum()
	return b
}

// MultiStop prices a route of totalStops coordinates (one pickup followed
// by totalStops-1 drops). The pickup->first-drop leg pays the full
// single-stop formula; each drop after the first pays only the reduced
// extra-stop fee, amortizing the shared route overhead. Callers guarantee
// totalStops >= 2.
func MultiStop(p Policy, legDistanceKm float64, weather models.WeatherCondition, timeCond models.TimeCondition, weight models.WeightClass, totalStops int) models.MultiStopPriceBreakdown {
	baseline := Delivery(p, legDistanceKm, weather, timeCond, weight)
	b := models.MultiStopPriceBreakdown{
		Baseline:     baseline,
		ExtraStops:   totalStops - 2,
		ExtraStopFee: p.ExtraStopFee,
	}
	b.Total = b.Sum()
	return b
}

// Shopping prices a shopping-proxy errand. The range selector picks the
// cost shape: a fixed zone fee for nearby runs (distance ignored) or a
// distance-based fee with its own base for a specific store. The first
// IncludedItems items are free; each item beyond adds the marginal fee.
// Callers guarantee itemCount >= 1.
func Shopping(p Policy, rng models.ShoppingRange, itemCount int, distanceKm float64, weather models.WeatherCondition, timeCond models.TimeCondition, hasHeavyItem bool) models.ShoppingPriceBreakdown {
	b := models.ShoppingPriceBreakdown{
		Range:            rng,
		WeatherSurcharge: p.WeatherSurcharges[weather],
		TimeSurcharge:    p.TimeSurcharges[timeCond],
	}
	switch rng {
	case models.RangeSpecific:
		b.BaseFee = p.ShoppingBaseFare
		b.DistanceFee = distanceFee(p, distanceKm)
	default:
		b.BaseFee = p.NearbyZoneFee
	}
	if extra := itemCount - p.IncludedItems; extra > 0 {
		b.ItemFee = int64(extra) * p.PerItemFee
	}
	if hasHeavyItem {
		b.HeavyItemFee = p.HeavyItemFee
	}
	b.Total = b.Sum()
	return b
}

// distanceFee accumulates the fee band by band: the flat component of every
// band entered plus the per-km component over the kilometres inside it.
// Increasing distance can only add, so the fee is monotonic for any
// non-negative schedule. Rounding happens once, at this component's
// boundary.
func distanceFee(p Policy, distanceKm float64) int64 {
	if distanceKm <= 0 {
		return 0
	}
	var fee float64
	for _, t := range p.DistanceTiers {
		if distanceKm <= t.MinKm {
			break
		}
		span := distanceKm - t.MinKm
		if t.MaxKm > 0 && distanceKm > t.MaxKm {
			span = t.MaxKm - t.MinKm
		}
		fee += float64(t.Flat) + float64(t.PerKm)*span
	}
	return int64(math.Round(fee))
}
