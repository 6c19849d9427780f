package exchange

import "short-trade-lab/internal/domain"

// ResolveLeverage returns the effective leverage for an order: the
// requested leverage capped by the notional tier it falls into, then
// clamped to [1, MaxLeverage]. Tiers are checked in order; intended
// notional beyond the last tier cap gets the last tier's maximum.
func ResolveLeverage(margin, requested float64, cfg domain.SimConfig) float64 {
	lev := requested
	if lev < 1 {
		lev = 1
	}
	if lev > cfg.MaxLeverage {
		lev = cfg.MaxLeverage
	}

	if len(cfg.LeverageTiers) == 0 {
		return lev
	}

	intended := margin * lev
	tierMax := cfg.LeverageTiers[len(cfg.LeverageTiers)-1].MaxLeverage
	for _, tier := range cfg.LeverageTiers {
		if intended <= tier.NotionalCap {
			tierMax = tier.MaxLeverage
			break
		}
	}
	if lev > tierMax {
		lev = tierMax
	}
	if lev < 1 {
		lev = 1
	}
	return lev
}

// LiqPriceShort returns the forced-close price for a short opened at
// entry with the given leverage: the adverse excursion at which losses
// consume the initial margin less the maintenance requirement.
func LiqPriceShort(entry, leverage, maintenanceMarginRate float64) float64 {
	return entry * (1 + 1/leverage - maintenanceMarginRate)
}
