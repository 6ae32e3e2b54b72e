package fusion

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/skalibog/bfta/internal/analysis/indicator"
	"github.com/skalibog/bfta/pkg/models"
)

func defined(values ...float64) indicator.Series {
	s := make(indicator.Series, len(values))
	for i, v := range values {
		s[i] = indicator.Point{Value: v, Defined: true}
	}
	return s
}

// latestSet собирает набор индикаторов из одних только последних значений
func latestSet(bars int, rsi, smaShort, smaLong, macd, signal float64) indicator.Set {
	return indicator.Set{
		Params: indicator.DefaultParams(),
		Bars:   bars,
		RSI:    defined(rsi),
		MA: indicator.MovingAverageSet{
			SMAShort: defined(smaShort),
			SMALong:  defined(smaLong),
		},
		MACD: indicator.MACDSet{
			MACD:   defined(macd),
			Signal: defined(signal),
		},
	}
}

func barSeries(t *testing.T, closes []float64) *models.BarSeries {
	t.Helper()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]*models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = &models.Candle{OpenTime: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	s, err := models.NewBarSeries("ETHUSDT", candles)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return s
}

func TestEvaluate_AllNeutralTieResolvesToSell(t *testing.T) {
	set := latestSet(60, 50, 100, 100, 0.5, 0.5)
	res, err := Evaluate(set, DefaultThresholds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range res.Signals {
		if s.Direction != models.Neutral || s.Weight != 0 {
			t.Errorf("%s: expected neutral/0, got %s/%d", s.Label, s.Direction, s.Weight)
		}
	}
	if res.BuyPercentage != 0 || res.SellPercentage != 0 {
		t.Errorf("expected 0/0, got %.2f/%.2f", res.BuyPercentage, res.SellPercentage)
	}
	if res.Advice != models.Sell {
		t.Errorf("tie should resolve to Sell, got %s", res.Advice)
	}
}

func TestEvaluate_SignalOrderAndRules(t *testing.T) {
	tests := []struct {
		name       string
		set        indicator.Set
		directions [3]models.Direction
		buy, sell  float64
		advice     models.Direction
	}{
		{
			name:       "all buy",
			set:        latestSet(60, 25, 110, 100, 2, 1),
			directions: [3]models.Direction{models.Buy, models.Buy, models.Buy},
			buy:        100, sell: 0, advice: models.Buy,
		},
		{
			name:       "all sell",
			set:        latestSet(60, 75, 90, 100, 1, 2),
			directions: [3]models.Direction{models.Sell, models.Sell, models.Sell},
			buy:        0, sell: 100, advice: models.Sell,
		},
		{
			name:       "two buy one sell",
			set:        latestSet(60, 80, 110, 100, 2, 1),
			directions: [3]models.Direction{models.Sell, models.Buy, models.Buy},
			buy:        66.67, sell: 33.33, advice: models.Buy,
		},
		{
			name:       "one buy one sell one neutral",
			set:        latestSet(60, 50, 110, 100, 1, 2),
			directions: [3]models.Direction{models.Neutral, models.Buy, models.Sell},
			buy:        33.33, sell: 33.33, advice: models.Sell,
		},
		{
			name:       "rsi thresholds are strict",
			set:        latestSet(60, 30, 100, 100, 1, 1),
			directions: [3]models.Direction{models.Neutral, models.Neutral, models.Neutral},
			buy:        0, sell: 0, advice: models.Sell,
		},
		{
			name:       "rsi 70 is neutral",
			set:        latestSet(60, 70, 100, 101, 1, 1),
			directions: [3]models.Direction{models.Neutral, models.Sell, models.Neutral},
			buy:        0, sell: 33.33, advice: models.Sell,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Evaluate(tt.set, DefaultThresholds())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(res.Signals) != 3 {
				t.Fatalf("expected 3 signals, got %d", len(res.Signals))
			}
			labels := [3]models.Label{models.LabelRSI, models.LabelSMA, models.LabelMACD}
			for i, s := range res.Signals {
				if s.Label != labels[i] {
					t.Errorf("signal %d: label %s, want %s", i, s.Label, labels[i])
				}
				if s.Direction != tt.directions[i] {
					t.Errorf("%s: direction %s, want %s", s.Label, s.Direction, tt.directions[i])
				}
				if s.Weight != Weight(s.Direction) {
					t.Errorf("%s: weight %d does not match %s", s.Label, s.Weight, s.Direction)
				}
			}
			if res.BuyPercentage != tt.buy || res.SellPercentage != tt.sell {
				t.Errorf("percentages: got %.2f/%.2f, want %.2f/%.2f", res.BuyPercentage, res.SellPercentage, tt.buy, tt.sell)
			}
			if res.Advice != tt.advice {
				t.Errorf("advice: got %s, want %s", res.Advice, tt.advice)
			}
		})
	}
}

func TestEvaluate_InsufficientHistory(t *testing.T) {
	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	set := indicator.Compute(barSeries(t, closes), indicator.DefaultParams())

	_, err := Evaluate(set, DefaultThresholds())
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
	var ih *InsufficientHistoryError
	if !errors.As(err, &ih) {
		t.Fatalf("expected *InsufficientHistoryError, got %T", err)
	}
	if ih.Bars != 10 {
		t.Errorf("bars: got %d, want 10", ih.Bars)
	}
}

func TestEvaluate_InsufficientHistoryForSMAOnly(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i%4)
	}
	set := indicator.Compute(barSeries(t, closes), indicator.DefaultParams())

	_, err := Evaluate(set, DefaultThresholds())
	var ih *InsufficientHistoryError
	if !errors.As(err, &ih) {
		t.Fatalf("expected *InsufficientHistoryError, got %v", err)
	}
	if ih.Indicator != models.LabelSMA || ih.Required != 50 {
		t.Errorf("got %s/%d, want SMA/50", ih.Indicator, ih.Required)
	}
}

func TestEvaluate_ConstantSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 1234.5
	}
	set := indicator.Compute(barSeries(t, closes), indicator.DefaultParams())

	res, err := Evaluate(set, DefaultThresholds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// RSI 0/0 не считается нехваткой истории и дает нейтральный сигнал
	if res.Signals[0].Direction != models.Neutral {
		t.Errorf("RSI on a flat series: got %s, want Neutral", res.Signals[0].Direction)
	}
	if res.Signals[1].Direction != models.Neutral {
		t.Errorf("SMA on a flat series: got %s, want Neutral", res.Signals[1].Direction)
	}
	macd, _ := set.MACD.MACD.Latest()
	if math.Abs(macd) > 1e-9 {
		t.Errorf("MACD should converge to 0, got %g", macd)
	}
}

func TestPercentages_BoundsForAllCombinations(t *testing.T) {
	dirs := []models.Direction{models.Buy, models.Sell, models.Neutral}
	third := 100.0 / 3.0
	for _, a := range dirs {
		for _, b := range dirs {
			for _, c := range dirs {
				signals := []models.SignalRecord{
					newRecord(models.LabelRSI, a, ""),
					newRecord(models.LabelSMA, b, ""),
					newRecord(models.LabelMACD, c, ""),
				}
				buy, sell := Percentages(signals, 2)
				if buy < 0 || sell < 0 || buy+sell > 100+1e-9 {
					t.Errorf("%s/%s/%s: out of bounds %.2f + %.2f", a, b, c, buy, sell)
				}
				for _, p := range []float64{buy, sell} {
					k := math.Round(p / third)
					if math.Abs(p-k*third) > 0.005+1e-9 {
						t.Errorf("%s/%s/%s: %.2f is not a multiple of 100/3", a, b, c, p)
					}
				}
			}
		}
	}
}

func TestPercentages_Rounding(t *testing.T) {
	signals := []models.SignalRecord{
		newRecord(models.LabelRSI, models.Buy, ""),
		newRecord(models.LabelSMA, models.Buy, ""),
		newRecord(models.LabelMACD, models.Sell, ""),
	}
	tests := []struct {
		precision int32
		buy, sell float64
	}{
		{2, 66.67, 33.33},
		{0, 67, 33},
		{4, 66.6667, 33.3333},
	}
	for _, tt := range tests {
		buy, sell := Percentages(signals, tt.precision)
		if buy != tt.buy || sell != tt.sell {
			t.Errorf("precision %d: got %v/%v, want %v/%v", tt.precision, buy, sell, tt.buy, tt.sell)
		}
	}
}

func TestWeight(t *testing.T) {
	if Weight(models.Buy) != 1 || Weight(models.Sell) != -1 || Weight(models.Neutral) != 0 {
		t.Error("unexpected weight mapping")
	}
}
