package models

import (
	"time"
)

// Candle представляет дневной OHLCV бар
type Candle struct {
	Symbol    string
	Interval  string
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

// Direction направление сигнала
type Direction string

const (
	Buy     Direction = "Buy"
	Sell    Direction = "Sell"
	Neutral Direction = "Neutral"
)

// Label индикатор, по которому построен сигнал
type Label string

const (
	LabelRSI  Label = "RSI"
	LabelSMA  Label = "SMA"
	LabelMACD Label = "MACD"
)

// SignalRecord сигнал одного индикатора на последнем баре
type SignalRecord struct {
	Label     Label     `json:"label"`
	Direction Direction `json:"direction"`
	Weight    int       `json:"weight"`
	Note      string    `json:"note,omitempty"`
}

// AnalysisResult итог слияния сигналов
type AnalysisResult struct {
	Signals        []SignalRecord `json:"signals"`
	BuyPercentage  float64        `json:"buy_percentage"`
	SellPercentage float64        `json:"sell_percentage"`
	Advice         Direction      `json:"advice"`
}

// AnalysisRecord представляет результат одного запуска анализа
type AnalysisRecord struct {
	ID           string         `json:"id"`
	Symbol       string         `json:"symbol"`
	Timestamp    time.Time      `json:"timestamp"`
	LatestBar    time.Time      `json:"latest_bar"`
	CurrentPrice float64        `json:"current_price"`
	Bars         int            `json:"bars"`
	Result       AnalysisResult `json:"result"`
}
