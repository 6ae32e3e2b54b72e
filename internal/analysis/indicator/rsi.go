package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/skalibog/bfta/pkg/models"
)

// RSI рассчитывает индекс относительной силы с простым скользящим средним
// приростов и потерь за period изменений цены (без сглаживания Уайлдера).
//
// Значение определено с индекса period. Крайние случаи:
//   - средняя потеря 0, средний прирост > 0: RSI = 100;
//   - средняя потеря 0 и средний прирост 0 (цена не менялась): значение не определено.
func RSI(series *models.BarSeries, period int) Series {
	closes := series.Closes()
	n := len(closes)
	out := undefinedSeries(n)
	if period <= 0 || n < period+1 {
		return out
	}

	// gains[j] и losses[j] относятся к бару j+1
	gains := make([]float64, n-1)
	losses := make([]float64, n-1)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else if delta < 0 {
			losses[i-1] = -delta
		}
	}

	avgGain := talib.Sma(gains, period)
	avgLoss := talib.Sma(losses, period)

	// Скользящая сумма в talib может оставить остаток порядка 1e-17 после выхода
	// ненулевого значения из окна, поэтому нули определяются по счетчикам.
	gainCount, lossCount := 0, 0
	for j := 0; j < n-1; j++ {
		if gains[j] > 0 {
			gainCount++
		}
		if losses[j] > 0 {
			lossCount++
		}
		if j >= period {
			if gains[j-period] > 0 {
				gainCount--
			}
			if losses[j-period] > 0 {
				lossCount--
			}
		}
		if j < period-1 {
			continue
		}

		g, l := 0.0, 0.0
		if gainCount > 0 {
			g = math.Max(avgGain[j], 0)
		}
		if lossCount > 0 {
			l = math.Max(avgLoss[j], 0)
		}
		if value, ok := rsiValue(g, l); ok {
			out[j+1] = Point{Value: value, Defined: true}
		}
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) (float64, bool) {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 0, false
	case avgLoss == 0:
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}
