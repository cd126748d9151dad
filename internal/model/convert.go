package model

import "github.com/shopspring/decimal"

// DecimalsToFloat32s narrows decimals to float32 for model input. Precision
// loss is acceptable here: the model was trained on float32 data.
func DecimalsToFloat32s(in []decimal.Decimal) []float32 {
	out := make([]float32, len(in))
	for i, d := range in {
		f, _ := d.Float64()
		out[i] = float32(f)
	}
	return out
}

// Float32ToDecimal widens a model output back into a decimal.
func Float32ToDecimal(f float32) decimal.Decimal {
	return decimal.NewFromFloat32(f)
}
