package sizing

import "math"

const (
	// p = 0.5 is a neutral starting point; there is no historical edge data
	// to estimate the win probability with yet.
	winProbability = 0.5
	// Reference average loss used to turn expected gain into an odds ratio.
	avgLoss = 0.0009
	// Never stake more than 20% of capital on one decision.
	maxAllocation = 0.2
)

// MaxAllocation is the hard ceiling on the fraction of capital a single
// decision may stake.
const MaxAllocation = maxAllocation

// Fraction computes the fraction of the wallet to trade using a dampened
// Kelly criterion. The result is always in [0, MaxAllocation]: a negative
// Kelly fraction means "no edge", not "short", and a zero expected gain
// yields zero rather than a division fault.
func Fraction(currentPrice, predictedPrice, riskTolerance float64) float64 {
	if currentPrice == 0 {
		return 0
	}
	expectedGain := (math.Abs(predictedPrice) - currentPrice) / currentPrice
	b := expectedGain / avgLoss
	if b == 0 {
		return 0
	}
	fraction := (winProbability*b - (1 - winProbability)) / b
	fraction *= riskTolerance
	if fraction < 0 {
		return 0
	}
	return math.Min(fraction, maxAllocation)
}
