package config

import "github.com/example/errand-core/internal/pricing"

// PricingPolicy applies the configured overrides to the stock fee schedule
// and validates the result, so a misconfigured schedule (e.g. an extra-stop
// fee above the base fare) fails at startup instead of producing quotes
// that violate the multi-stop ceiling.
func (c ServerConfig) PricingPolicy() (pricing.Policy, error) {
	p := pricing.DefaultPolicy()
	if c.ExtraStopFee != nil {
		p.ExtraStopFee = *c.ExtraStopFee
	}
	if c.PerItemFee != nil {
		p.PerItemFee = *c.PerItemFee
	}
	if c.IncludedItems != nil {
		p.IncludedItems = *c.IncludedItems
	}
	if err := p.Validate(); err != nil {
		return pricing.Policy{}, err
	}
	return p, nil
}
