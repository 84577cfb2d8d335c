package models

// PriceBreakdown is an itemized single-stop delivery quote in integer minor
// currency units. Total is always the exact sum of the named components so
// a stored breakdown can be recomputed line by line.
type PriceBreakdown struct {
	BaseFare         int64 `json:"base_fare"`
	DistanceFee      int64 `json:"distance_fee"`
	WeatherSurcharge int64 `json:"weather_surcharge"`
	TimeSurcharge    int64 `json:"time_surcharge"`
	WeightSurcharge  int64 `json:"weight_surcharge"`
	Total            int64 `json:"total"`
}

// Sum recomputes the total from the components.
func (b PriceBreakdown) Sum() int64 {
	return b.BaseFare + b.DistanceFee + b.WeatherSurcharge + b.TimeSurcharge + b.WeightSurcharge
}

// MultiStopPriceBreakdown prices a route of totalStops coordinates: the
// pickup->first-drop leg at the full single-stop formula plus a reduced
// per-stop fee for every drop after the first.
type MultiStopPriceBreakdown struct {
	Baseline     PriceBreakdown `json:"baseline"`
	ExtraStops   int            `json:"extra_stops"`
	ExtraStopFee int64          `json:"extra_stop_fee"`
	Total        int64          `json:"total"`
}

func (b MultiStopPriceBreakdown) Sum() int64 {
	return b.Baseline.Total + int64(b.ExtraStops)*b.ExtraStopFee
}

// ShoppingPriceBreakdown is an itemized shopping-proxy quote.
type ShoppingPriceBreakdown struct {
	Range            ShoppingRange `json:"range"`
	BaseFee          int64         `json:"base_fee"`
	DistanceFee      int64         `json:"distance_fee"`
	ItemFee          int64         `json:"item_fee"`
	HeavyItemFee     int64         `json:"heavy_item_fee"`
	WeatherSurcharge int64         `json:"weather_surcharge"`
	TimeSurcharge    int64         `json:"time_surcharge"`
	Total            int64         `json:"total"`
}

func (b ShoppingPriceBreakdown) Sum() int64 {
	return b.BaseFee + b.DistanceFee + b.ItemFee + b.HeavyItemFee + b.WeatherSurcharge + b.TimeSurcharge
}
