package indicator

import "github.com/skalibog/bfta/pkg/models"

// MACDSet линия MACD и ее сигнальная линия
type MACDSet struct {
	MACD   Series `json:"macd"`
	Signal Series `json:"macd_signal"`
}

// MACD рассчитывает разницу EMA(fast) и EMA(slow) цены закрытия и EMA этой
// разницы с периодом signal. Обе серии определены с первого бара.
func MACD(series *models.BarSeries, fast, slow, signal int) MACDSet {
	closes := series.Closes()
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	macd := undefinedSeries(len(closes))
	for i := range closes {
		f, fok := fastEMA.At(i)
		s, sok := slowEMA.At(i)
		if fok && sok {
			macd[i] = Point{Value: f - s, Defined: true}
		}
	}

	return MACDSet{
		MACD:   macd,
		Signal: EMAOfSeries(macd, signal),
	}
}
