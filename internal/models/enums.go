package models

import "strings"

// WeatherCondition at the quote origin. The zero value is Clear, which is
// also what any unrecognized input maps to so quote generation never blocks
// on a bad enum.
type WeatherCondition int

const (
	WeatherClear WeatherCondition = iota
	WeatherRain
	WeatherSnow
)

func (w WeatherCondition) String() string {
	switch w {
	case WeatherRain:
		return "RAIN"
	case WeatherSnow:
		return "SNOW"
	default:
		return "CLEAR"
	}
}

// ParseWeather maps a wire string to a WeatherCondition. Unknown values
// price as Clear, the lowest-surcharge member.
func ParseWeather(s string) WeatherCondition {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RAIN":
		return WeatherRain
	case "SNOW":
		return WeatherSnow
	default:
		return WeatherClear
	}
}

// TimeCondition classifies the local hour. Zero value is Day.
type TimeCondition int

const (
	TimeDay TimeCondition = iota
	TimeNight
	TimePeak
)

func (t TimeCondition) String() string {
	switch t {
	case TimeNight:
		return "NIGHT"
	case TimePeak:
		return "PEAK"
	default:
		return "DAY"
	}
}

func ParseTimeCondition(s string) TimeCondition {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NIGHT":
		return TimeNight
	case "PEAK":
		return TimePeak
	default:
		return TimeDay
	}
}

// WeightClass of the package being delivered. Zero value is Light.
type WeightClass int

const (
	WeightLight WeightClass = iota
	WeightMedium
	WeightHeavy
)

func (w WeightClass) String() string {
	switch w {
	case WeightMedium:
		return "MEDIUM"
	case WeightHeavy:
		return "HEAVY"
	default:
		return "LIGHT"
	}
}

func ParseWeightClass(s string) WeightClass {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MEDIUM":
		return WeightMedium
	case "HEAVY":
		return WeightHeavy
	default:
		return WeightLight
	}
}

// ShoppingRange selects the cost shape of a shopping-proxy quote.
type ShoppingRange int

const (
	// RangeNearby prices a fixed zone fee; distance input is ignored.
	RangeNearby ShoppingRange = iota
	// RangeSpecific prices by distance with its own base fare.
	RangeSpecific
)

func (r ShoppingRange) String() string {
	if r == RangeSpecific {
		return "SPECIFIC"
	}
	return "NEARBY"
}

func ParseShoppingRange(s string) ShoppingRange {
	if strings.ToUpper(strings.TrimSpace(s)) == "SPECIFIC" {
		return RangeSpecific
	}
	return RangeNearby
}
