// Package signal turns risk and smart-money assessments into trading
// signals: a momentum figure, a composite confidence, a discrete action
// and position sizing with stop/target levels.
package signal

import "solana-signal-engine/internal/domain"

// MomentumScore maps recent price action onto [0,1], with 0.5 neutral.
// Price changes are blended short-term heavy (1h 50%, 6h 30%, 24h 20%);
// a blended move of ±25% saturates the scale. Tokens with negligible
// volume relative to market cap have their deviation from neutral damped,
// so a thin illiquid pump does not read as conviction.
func MomentumScore(snap *domain.MarketSnapshot) float64 {
	if snap == nil {
		return 0.5
	}

	blended := 0.5*snap.PriceChangeH1 + 0.3*snap.PriceChangeH6 + 0.2*snap.PriceChange24
	deviation := blended / 50 // percent -> [-0.5, 0.5] at saturation

	switch vr := snap.VolumeRatio(); {
	case vr < 0.001:
		deviation *= 0.3
	case vr < 0.01:
		deviation *= 0.6
	}

	return clamp01(0.5 + deviation)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
