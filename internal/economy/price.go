package economy

import "math"

// Price answers the price query f(commodity, time, region). Unknown
// commodities return 0 (sentinel, not an error). The result is never
// negative.
func (e *Engine) Price(commodityID string, now float64, region string) float64 {
	return e.priceDepth(commodityID, now, region, 0)
}

// priceDepth guards against actor parent cycles.
func (e *Engine) priceDepth(commodityID string, now float64, region string, depth int) float64 {
	c, ok := e.commodities[commodityID]
	if !ok {
		return 0
	}

	price := c.BasePrice * e.driftFactor(now)
	price = e.applyStack(price, commodityID, region, StackBase)
	price = e.applyStack(price, commodityID, region, StackTotal)

	// Blend with the parent actor's price, damped by influence.
	if a := e.actors[region]; a != nil && a.Parent != "" && a.Influence < 1 && depth < 4 {
		parent := e.priceDepth(commodityID, now, a.Parent, depth+1)
		price = a.Influence*price + (1-a.Influence)*parent
	}

	if price < 0 {
		price = 0
	}
	return price
}

// driftFactor evaluates the summed drift components at time t. Neutral = 1.
func (e *Engine) driftFactor(t float64) float64 {
	f := 1.0
	for _, d := range e.drift {
		if d.Period <= 0 {
			continue
		}
		switch d.Kind {
		case DriftSine:
			f += d.Amplitude * math.Sin(2*math.Pi*t/d.Period)
		case DriftLinear:
			f += d.Amplitude * (t / d.Period)
		}
	}
	return f
}

// applyStack folds all active modifiers of one stacking class that match the
// commodity and scope. Multiplicative magnitudes compose by product, additive
// by sum; both are commutative within their kind.
func (e *Engine) applyStack(price float64, commodityID, region string, stacking Stacking) float64 {
	product := 1.0
	sum := 0.0
	for _, id := range e.order {
		m := e.modifiers[id]
		if m == nil || !m.Active || m.Stacking != stacking {
			continue
		}
		if !e.targetMatches(m.Target, commodityID) || !e.scopeMatches(m.Scope, region) {
			continue
		}
		switch m.Kind {
		case KindMultiplicative:
			product *= m.Magnitude
		case KindAdditive:
			sum += m.Magnitude
		}
	}
	return price*product + sum
}

// targetMatches reports whether a modifier target covers the commodity:
// exact id, a group containing it, or global (empty).
func (e *Engine) targetMatches(target, commodityID string) bool {
	if target == "" || target == commodityID {
		return true
	}
	for _, member := range e.groups[target] {
		if member == commodityID {
			return true
		}
	}
	return false
}

// scopeMatches reports whether a modifier scope covers the queried region:
// global (empty), the region itself, or anywhere in its actor parent chain.
func (e *Engine) scopeMatches(scope, region string) bool {
	if scope == "" || scope == region {
		return true
	}
	seen := 0
	for a := e.actors[region]; a != nil && a.Parent != "" && seen < 4; a = e.actors[a.Parent] {
		if a.Parent == scope {
			return true
		}
		seen++
	}
	return false
}
