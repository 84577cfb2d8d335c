package pricing

import (
	"errors"
	"fmt"

	"github.com/example/errand-core/internal/models"
)

// DistanceTier prices one band of road distance: a flat component for
// entering the band plus a linear per-km component. MaxKm <= 0 marks the
// open-ended last band.
type DistanceTier struct {
	MinKm float64
	MaxKm float64
	Flat  int64
	PerKm int64
}

// Policy holds every business constant consumed by the engine, in integer
// minor currency units. Values are configuration, not code, so fee changes
// never touch the computation.
type Policy struct {
	BaseFare      int64
	DistanceTiers []DistanceTier

	WeatherSurcharges map[models.WeatherCondition]int64
	TimeSurcharges    map[models.TimeCondition]int64
	WeightSurcharges  map[models.WeightClass]int64

	// ExtraStopFee is charged per drop after the first on a multi-stop
	// route. Validate enforces it never exceeds BaseFare so a multi-stop
	// quote can't price above the same stops dispatched independently.
	ExtraStopFee int64

	// Shopping-proxy shape.
	NearbyZoneFee    int64
	ShoppingBaseFare int64
	IncludedItems    int
	PerItemFee       int64
	HeavyItemFee     int64
}

// DefaultPolicy returns the stock fee schedule. Amounts are minor units
// (e.g. cents).
func DefaultPolicy() Policy {
	return Policy{
		BaseFare: 300,
		DistanceTiers: []DistanceTier{
			{MinKm: 0, MaxKm: 5, Flat: 0, PerKm: 100},
			{MinKm: 5, MaxKm: 15, Flat: 100, PerKm: 80},
			{MinKm: 15, MaxKm: 0, Flat: 300, PerKm: 60},
		},
		WeatherSurcharges: map[models.WeatherCondition]int64{
			models.WeatherClear: 0,
			models.WeatherRain:  150,
			models.WeatherSnow:  300,
		},
		TimeSurcharges: map[models.TimeCondition]int64{
			models.TimeDay:   0,
			models.TimeNight: 200,
			models.TimePeak:  250,
		},
		WeightSurcharges: map[models.WeightClass]int64{
			models.WeightLight:  0,
			models.WeightMedium: 100,
			models.WeightHeavy:  250,
		},
		ExtraStopFee:     150,
		NearbyZoneFee:    400,
		ShoppingBaseFare: 350,
		IncludedItems:    10,
		PerItemFee:       30,
		HeavyItemFee:     200,
	}
}

// Validate rejects schedules that would break the engine's pricing
// guarantees: negative amounts break auditability, per-km fees below zero
// break distance monotonicity, and an extra-stop fee above the base fare
// breaks the multi-stop ceiling.
func (p Policy) Validate() error {
	var errs []error
	if p.BaseFare < 0 {
		errs = append(errs, errors.New("base fare must be >= 0"))
	}
	if len(p.DistanceTiers) == 0 {
		errs = append(errs, errors.New("at least one distance tier is required"))
	}
	for i, t := range p.DistanceTiers {
		if t.Flat < 0 || t.PerKm < 0 {
			errs = append(errs, fmt.Errorf("distance tier %d has negative fees", i))
		}
	}
	for c, v := range p.WeatherSurcharges {
		if v < 0 {
			errs = append(errs, fmt.Errorf("weather surcharge for %s is negative", c))
		}
	}
	for c, v := range p.TimeSurcharges {
		if v < 0 {
			errs = append(errs, fmt.Errorf("time surcharge for %s is negative", c))
		}
	}
	for c, v := range p.WeightSurcharges {
		if v < 0 {
			errs = append(errs, fmt.Errorf("weight surcharge for %s is negative", c))
		}
	}
	if p.ExtraStopFee < 0 {
		errs = append(errs, errors.New("extra stop fee must be >= 0"))
	}
	if p.ExtraStopFee > p.BaseFare {
		errs = append(errs, errors.New("extra stop fee must not exceed base fare"))
	}
	if p.NearbyZoneFee < 0 || p.ShoppingBaseFare < 0 || p.PerItemFee < 0 || p.HeavyItemFee < 0 {
		errs = append(errs, errors.New("shopping fees must be >= 0"))
	}
	if p.IncludedItems < 0 {
		errs = append(errs, errors.New("included item threshold must be >= 0"))
	}
	return errors.Join(errs...)
}
