// Package fusion превращает последние значения индикаторов в дискретные
// сигналы и сводит их в итоговую рекомендацию.
package fusion

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/skalibog/bfta/internal/analysis/indicator"
	"github.com/skalibog/bfta/pkg/models"
)

// ErrInsufficientHistory серия короче прогрева хотя бы одного индикатора
var ErrInsufficientHistory = errors.New("недостаточно истории")

// InsufficientHistoryError указывает индикатор, которому не хватило баров
type InsufficientHistoryError struct {
	Indicator models.Label
	Bars      int
	Required  int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("%s для %s: %d баров, требуется %d", ErrInsufficientHistory.Error(), e.Indicator, e.Bars, e.Required)
}

func (e *InsufficientHistoryError) Is(target error) bool {
	return target == ErrInsufficientHistory
}

// Thresholds пороги RSI и точность вывода процентов
type Thresholds struct {
	RSIOversold   float64
	RSIOverbought float64
	Precision     int32
}

// DefaultThresholds RSI 30/70, проценты с двумя знаками
func DefaultThresholds() Thresholds {
	return Thresholds{RSIOversold: 30, RSIOverbought: 70, Precision: 2}
}

// Evaluate оценивает последний бар каждого индикатора и сводит сигналы.
// Порядок сигналов: RSI, SMA, MACD.
func Evaluate(set indicator.Set, th Thresholds) (models.AnalysisResult, error) {
	if err := checkHistory(set); err != nil {
		return models.AnalysisResult{}, err
	}

	rsiSignal := rsiRecord(set, th)
	smaSignal, err := smaRecord(set)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	macdSignal, err := macdRecord(set)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	signals := []models.SignalRecord{rsiSignal, smaSignal, macdSignal}
	buy, sell := Percentages(signals, th.Precision)

	return models.AnalysisResult{
		Signals:        signals,
		BuyPercentage:  buy,
		SellPercentage: sell,
		Advice:         Advise(signals),
	}, nil
}

func checkHistory(set indicator.Set) error {
	checks := []struct {
		label    models.Label
		required int
	}{
		{models.LabelRSI, set.RSIWarmup()},
		{models.LabelSMA, set.SMAWarmup()},
		{models.LabelMACD, set.MACDWarmup()},
	}
	for _, c := range checks {
		if set.Bars < c.required {
			return &InsufficientHistoryError{Indicator: c.label, Bars: set.Bars, Required: c.required}
		}
	}
	return nil
}

func rsiRecord(set indicator.Set, th Thresholds) models.SignalRecord {
	value, ok := set.RSI.Latest()
	if !ok {
		// Истории достаточно, значит окно без изменений цены (0/0)
		return newRecord(models.LabelRSI, models.Neutral, "цена не менялась за период")
	}
	direction, note := ClassifyRSI(value, th)
	return newRecord(models.LabelRSI, direction, fmt.Sprintf("%s (%.2f)", note, value))
}

func smaRecord(set indicator.Set) (models.SignalRecord, error) {
	short, sok := set.MA.SMAShort.Latest()
	long, lok := set.MA.SMALong.Latest()
	if !sok || !lok {
		return models.SignalRecord{}, &InsufficientHistoryError{Indicator: models.LabelSMA, Bars: set.Bars, Required: set.SMAWarmup()}
	}
	direction, note := ClassifySMA(short, long)
	return newRecord(models.LabelSMA, direction, note), nil
}

func macdRecord(set indicator.Set) (models.SignalRecord, error) {
	macd, mok := set.MACD.MACD.Latest()
	signal, sok := set.MACD.Signal.Latest()
	if !mok || !sok {
		return models.SignalRecord{}, &InsufficientHistoryError{Indicator: models.LabelMACD, Bars: set.Bars, Required: set.MACDWarmup()}
	}
	direction, note := ClassifyMACD(macd, signal)
	return newRecord(models.LabelMACD, direction, note), nil
}

func newRecord(label models.Label, direction models.Direction, note string) models.SignalRecord {
	return models.SignalRecord{
		Label:     label,
		Direction: direction,
		Weight:    Weight(direction),
		Note:      note,
	}
}

// ClassifyRSI: ниже oversold покупка, выше overbought продажа
func ClassifyRSI(rsi float64, th Thresholds) (models.Direction, string) {
	switch {
	case rsi < th.RSIOversold:
		return models.Buy, "перепроданность"
	case rsi > th.RSIOverbought:
		return models.Sell, "перекупленность"
	default:
		return models.Neutral, "нейтрально"
	}
}

// ClassifySMA: золотой крест при короткой SMA выше длинной, крест смерти при обратном
func ClassifySMA(short, long float64) (models.Direction, string) {
	switch {
	case short > long:
		return models.Buy, "золотой крест"
	case short < long:
		return models.Sell, "крест смерти"
	default:
		return models.Neutral, "SMA равны"
	}
}

// ClassifyMACD сравнивает MACD с сигнальной линией
func ClassifyMACD(macd, signal float64) (models.Direction, string) {
	switch {
	case macd > signal:
		return models.Buy, "MACD выше сигнальной линии"
	case macd < signal:
		return models.Sell, "MACD ниже сигнальной линии"
	default:
		return models.Neutral, "MACD на сигнальной линии"
	}
}

// Weight: Buy +1, Sell -1, Neutral 0
func Weight(d models.Direction) int {
	switch d {
	case models.Buy:
		return 1
	case models.Sell:
		return -1
	default:
		return 0
	}
}

// Percentages доля голосов за покупку и продажу, count * 100/len(signals).
// Деление точное, округление банковское до precision знаков.
func Percentages(signals []models.SignalRecord, precision int32) (buy, sell float64) {
	if len(signals) == 0 {
		return 0, 0
	}
	buys, sells := countVotes(signals)
	unit := decimal.NewFromInt(100).Div(decimal.NewFromInt(int64(len(signals))))

	buy = unit.Mul(decimal.NewFromInt(int64(buys))).RoundBank(precision).InexactFloat64()
	sell = unit.Mul(decimal.NewFromInt(int64(sells))).RoundBank(precision).InexactFloat64()
	return buy, sell
}

// Advise возвращает Buy только если голосов за покупку строго больше.
// Равенство, в том числе когда все сигналы нейтральны, дает Sell.
func Advise(signals []models.SignalRecord) models.Direction {
	buys, sells := countVotes(signals)
	if buys > sells {
		return models.Buy
	}
	return models.Sell
}

func countVotes(signals []models.SignalRecord) (buys, sells int) {
	for _, s := range signals {
		switch s.Weight {
		case 1:
			buys++
		case -1:
			sells++
		}
	}
	return buys, sells
}
