package domain

// RiskLevel classifies an aggregate risk score into a discrete band.
type RiskLevel string

// Risk level bands. Fixed score cutoffs: <=20 LOW, <=40 MEDIUM, <=65 HIGH, else EXTREME.
const (
	RiskLevelLow     RiskLevel = "LOW"
	RiskLevelMedium  RiskLevel = "MEDIUM"
	RiskLevelHigh    RiskLevel = "HIGH"
	RiskLevelExtreme RiskLevel = "EXTREME"
)

// RiskLevelForScore maps an aggregate score to its band.
// Pure function of the score; used everywhere a level is derived.
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score <= 20:
		return RiskLevelLow
	case score <= 40:
		return RiskLevelMedium
	case score <= 65:
		return RiskLevelHigh
	default:
		return RiskLevelExtreme
	}
}

// FactorScore is one weighted risk factor's contribution to an assessment.
type FactorScore struct {
	Name       string  // factor identifier (liquidity, concentration, age, activity, volatility)
	Score      float64 // points scored against MaxScore
	MaxScore   float64 // factor weight (all factors sum to 100)
	Confidence float64 // 0-1 confidence in the underlying data
	Detail     string  // human-readable rationale
}

// RiskAssessment is the scored view of one MarketSnapshot. Pure function of its
// input: the same snapshot always yields the same assessment.
type RiskAssessment struct {
	Address    string
	Symbol     string
	Score      float64 // aggregate risk, clamped to [0, 100]
	Level      RiskLevel
	Confidence float64 // weighted average of factor confidences, 0-1
	Factors    []FactorScore
	Warnings   []string

	// DataUnavailable marks the sentinel assessment produced when the snapshot
	// fetch failed upstream. Score and Factors carry no meaning when set.
	DataUnavailable bool
}

// UnavailableAssessment returns the sentinel assessment for a token whose
// market data could not be fetched. Never conflated with a real zero score.
func UnavailableAssessment(address, symbol string) *RiskAssessment {
	return &RiskAssessment{
		Address:         address,
		Symbol:          symbol,
		Level:           RiskLevelExtreme,
		DataUnavailable: true,
	}
}
