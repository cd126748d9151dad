package model

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// trainingRow is one line of the training-data CSV. Only the price column
// matters for fitting; unparseable values are skipped, matching how the
// scaler was originally fitted.
type trainingRow struct {
	Price string `csv:"price"`
}

// Scaler performs min/max scaling over price data, the same normalization the
// model was trained with. Transform and Detransform are exact inverses for
// any fitted bounds.
type Scaler struct {
	min decimal.Decimal
	max decimal.Decimal
}

// FitFromCSV reads the price column of the CSV at path and fits the scaler to
// its observed bounds.
func FitFromCSV(path string) (*Scaler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "model: opening training data")
	}
	defer f.Close()

	var rows []trainingRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, errors.Wrap(err, "model: parsing training data")
	}

	prices := make([]decimal.Decimal, 0, len(rows))
	for _, row := range rows {
		p, perr := decimal.NewFromString(row.Price)
		if perr != nil {
			continue
		}
		prices = append(prices, p)
	}
	if len(prices) == 0 {
		return nil, errors.Errorf("model: no usable prices in %s", path)
	}

	min, max := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p.LessThan(min) {
			min = p
		}
		if p.GreaterThan(max) {
			max = p
		}
	}
	return NewScaler(min, max)
}

// NewScaler builds a scaler from explicit bounds.
func NewScaler(min, max decimal.Decimal) (*Scaler, error) {
	if !max.GreaterThan(min) {
		return nil, errors.Errorf("model: degenerate scaler bounds [%s, %s]", min, max)
	}
	return &Scaler{min: min, max: max}, nil
}

// Transform scales data into [0, 1] relative to the fitted bounds.
func (s *Scaler) Transform(data []decimal.Decimal) []decimal.Decimal {
	span := s.max.Sub(s.min)
	out := make([]decimal.Decimal, len(data))
	for i, x := range data {
		out[i] = x.Sub(s.min).Div(span)
	}
	return out
}

// Detransform maps a scaled value back to price space.
func (s *Scaler) Detransform(x decimal.Decimal) decimal.Decimal {
	return s.max.Sub(s.min).Mul(x).Add(s.min)
}

// Bounds returns the fitted min and max.
func (s *Scaler) Bounds() (min, max decimal.Decimal) {
	return s.min, s.max
}
