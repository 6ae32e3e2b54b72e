package indicator

import (
	"github.com/markcheno/go-talib"

	"github.com/skalibog/bfta/pkg/models"
)

// SMA возвращает простое скользящее среднее по окну window.
// Значение определено начиная с индекса window-1.
func SMA(values []float64, window int) Series {
	out := undefinedSeries(len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	sma := talib.Sma(values, window)
	for i := window - 1; i < len(values); i++ {
		out[i] = Point{Value: sma[i], Defined: true}
	}
	return out
}

// EMA возвращает экспоненциальное среднее с периодом span (alpha = 2/(span+1)),
// начиная с первого значения: EMA[0] = values[0]. Прогрева нет.
func EMA(values []float64, span int) Series {
	out := undefinedSeries(len(values))
	if span <= 0 || len(values) == 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	prev := values[0]
	out[0] = Point{Value: prev, Defined: true}
	for i := 1; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = Point{Value: prev, Defined: true}
	}
	return out
}

// EMAOfSeries сглаживает уже рассчитанную серию. Начальное значение берется
// в первой определенной позиции, все до нее остается неопределенным.
func EMAOfSeries(s Series, span int) Series {
	out := undefinedSeries(len(s))
	start := s.FirstDefined()
	if span <= 0 || start < 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	prev := s[start].Value
	out[start] = Point{Value: prev, Defined: true}
	for i := start + 1; i < len(s); i++ {
		if !s[i].Defined {
			continue
		}
		prev = alpha*s[i].Value + (1-alpha)*prev
		out[i] = Point{Value: prev, Defined: true}
	}
	return out
}

// MovingAverageSet пара SMA и пара EMA
type MovingAverageSet struct {
	SMAShort Series `json:"sma_short"`
	SMALong  Series `json:"sma_long"`
	EMAShort Series `json:"ema_short"`
	EMALong  Series `json:"ema_long"`
}

// MovingAverages рассчитывает SMA и EMA для короткого и длинного окна
func MovingAverages(series *models.BarSeries, shortWindow, longWindow int) MovingAverageSet {
	closes := series.Closes()
	return MovingAverageSet{
		SMAShort: SMA(closes, shortWindow),
		SMALong:  SMA(closes, longWindow),
		EMAShort: EMA(closes, shortWindow),
		EMALong:  EMA(closes, longWindow),
	}
}
