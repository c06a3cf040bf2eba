package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// PercentChange computes 100*(future-now)/now.
func PercentChange(now, future float64) (float64, error) {
	if now <= 0 {
		return 0, errors.New("starting price must be positive")
	}
	return (future - now) / now * 100, nil
}

// Round2 rounds to two decimal places, half away from zero, without the
// binary float drift of math.Round(x*100)/100.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// AverageReturnPct averages percent returns as growth factors (1+p/100)
// and converts the mean back to a percentage.
func AverageReturnPct(pcts []float64) (float64, error) {
	if len(pcts) == 0 {
		return 0, errors.New("no returns to average")
	}
	sum := decimal.Zero
	hundred := decimal.NewFromInt(100)
	for _, p := range pcts {
		sum = sum.Add(decimal.NewFromFloat(p).Div(hundred).Add(decimal.NewFromInt(1)))
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(pcts))))
	f, _ := mean.Sub(decimal.NewFromInt(1)).Mul(hundred).Float64()
	return f, nil
}
