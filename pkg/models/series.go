package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrMalformedBar бар нарушает порядок времени или содержит некорректную цену
	ErrMalformedBar = errors.New("некорректный бар")
	// ErrEmptySeries серия не содержит ни одного бара
	ErrEmptySeries = errors.New("пустая серия баров")
)

// MalformedBarError описывает конкретный некорректный бар
type MalformedBarError struct {
	Index  int
	Reason string
}

func (e *MalformedBarError) Error() string {
	return fmt.Sprintf("%s #%d: %s", ErrMalformedBar.Error(), e.Index, e.Reason)
}

func (e *MalformedBarError) Is(target error) bool {
	return target == ErrMalformedBar
}

// BarSeries упорядоченная по времени серия баров, от старого к новому.
// После создания не изменяется.
type BarSeries struct {
	symbol string
	bars   []Candle
}

// NewBarSeries проверяет свечи и копирует их в неизменяемую серию.
// Одинаковые метки времени допускаются.
func NewBarSeries(symbol string, candles []*Candle) (*BarSeries, error) {
	if len(candles) == 0 {
		return nil, ErrEmptySeries
	}

	bars := make([]Candle, len(candles))
	var prev time.Time
	for i, c := range candles {
		if c == nil {
			return nil, &MalformedBarError{Index: i, Reason: "отсутствует бар"}
		}
		if c.OpenTime.IsZero() {
			return nil, &MalformedBarError{Index: i, Reason: "отсутствует метка времени"}
		}
		if i > 0 && c.OpenTime.Before(prev) {
			return nil, &MalformedBarError{
				Index:  i,
				Reason: fmt.Sprintf("время %s раньше предыдущего %s", c.OpenTime.Format(time.RFC3339), prev.Format(time.RFC3339)),
			}
		}
		if err := checkFields(c); err != "" {
			return nil, &MalformedBarError{Index: i, Reason: err}
		}
		prev = c.OpenTime
		bars[i] = *c
	}

	return &BarSeries{symbol: symbol, bars: bars}, nil
}

func checkFields(c *Candle) string {
	fields := []struct {
		name  string
		value float64
	}{
		{"open", c.Open},
		{"high", c.High},
		{"low", c.Low},
		{"close", c.Close},
		{"volume", c.Volume},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Sprintf("поле %s не является конечным числом", f.name)
		}
		if f.value < 0 {
			return fmt.Sprintf("поле %s отрицательно: %g", f.name, f.value)
		}
	}
	return ""
}

// Symbol возвращает символ серии
func (s *BarSeries) Symbol() string { return s.symbol }

// Len возвращает количество баров
func (s *BarSeries) Len() int { return len(s.bars) }

// At возвращает бар по индексу
func (s *BarSeries) At(i int) Candle { return s.bars[i] }

// Latest возвращает самый новый бар
func (s *BarSeries) Latest() Candle { return s.bars[len(s.bars)-1] }

// Bars возвращает копию баров
func (s *BarSeries) Bars() []Candle {
	out := make([]Candle, len(s.bars))
	copy(out, s.bars)
	return out
}

// Closes возвращает цены закрытия
func (s *BarSeries) Closes() []float64 {
	closes := make([]float64, len(s.bars))
	for i, b := range s.bars {
		closes[i] = b.Close
	}
	return closes
}

// Times возвращает время открытия каждого бара
func (s *BarSeries) Times() []time.Time {
	times := make([]time.Time, len(s.bars))
	for i, b := range s.bars {
		times[i] = b.OpenTime
	}
	return times
}
