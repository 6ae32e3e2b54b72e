package indicator

import "github.com/skalibog/bfta/pkg/models"

// Params периоды всех индикаторов
type Params struct {
	RSIPeriod  int
	SMAShort   int
	SMALong    int
	EMAShort   int
	EMALong    int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
}

// DefaultParams возвращает классические периоды: RSI 14, SMA/EMA 20/50, MACD 12/26/9
func DefaultParams() Params {
	return Params{
		RSIPeriod:  14,
		SMAShort:   20,
		SMALong:    50,
		EMAShort:   20,
		EMALong:    50,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
	}
}

// RSIWarmup количество баров, необходимое для значения RSI на последнем баре
func (p Params) RSIWarmup() int { return p.RSIPeriod + 1 }

// SMAWarmup количество баров, необходимое для обеих SMA
func (p Params) SMAWarmup() int { return max(p.SMAShort, p.SMALong) }

// MACDWarmup MACD определен с первого бара
func (p Params) MACDWarmup() int { return 1 }

// RequiredBars минимальная длина серии, при которой определены все индикаторы
func (p Params) RequiredBars() int {
	return max(p.RSIWarmup(), p.SMAWarmup(), p.MACDWarmup())
}

// Set все индикаторы, рассчитанные по одной серии баров
type Set struct {
	Params `json:"-"`
	Bars   int              `json:"bars"`
	RSI    Series           `json:"rsi"`
	MA     MovingAverageSet `json:"moving_averages"`
	MACD   MACDSet          `json:"macd"`
}

// Compute рассчитывает RSI, SMA/EMA и MACD. Индикаторы независимы друг от друга
// и не изменяют входную серию.
func Compute(series *models.BarSeries, p Params) Set {
	closes := series.Closes()
	return Set{
		Params: p,
		Bars:   series.Len(),
		RSI:    RSI(series, p.RSIPeriod),
		MA: MovingAverageSet{
			SMAShort: SMA(closes, p.SMAShort),
			SMALong:  SMA(closes, p.SMALong),
			EMAShort: EMA(closes, p.EMAShort),
			EMALong:  EMA(closes, p.EMALong),
		},
		MACD: MACD(series, p.MACDFast, p.MACDSlow, p.MACDSignal),
	}
}
