package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/skalibog/bfta/internal/analysis/fusion"
	"github.com/skalibog/bfta/internal/config"
	"github.com/skalibog/bfta/pkg/models"
)

// Storage журнал запусков анализа. Движок его не читает.
type Storage interface {
	SaveCandles(ctx context.Context, candles []*models.Candle) error
	SaveAnalysis(ctx context.Context, record *models.AnalysisRecord) error
	History(ctx context.Context, symbol string, limit int) ([]*models.AnalysisRecord, error)
	Close()
}

// New создает хранилище по типу из конфигурации
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "none":
		return NewNoopStorage(), nil
	case "influxdb":
		return NewInfluxDBStorage(ctx, cfg)
	default:
		return nil, fmt.Errorf("неизвестный тип хранилища: %q", cfg.Type)
	}
}

// NoopStorage ничего не сохраняет
type NoopStorage struct{}

// NewNoopStorage создает пустое хранилище
func NewNoopStorage() *NoopStorage {
	return &NoopStorage{}
}

func (NoopStorage) SaveCandles(context.Context, []*models.Candle) error { return nil }

func (NoopStorage) SaveAnalysis(context.Context, *models.AnalysisRecord) error { return nil }

func (NoopStorage) History(context.Context, string, int) ([]*models.AnalysisRecord, error) {
	return nil, nil
}

func (NoopStorage) Close() {}

// recordFromValues восстанавливает запись анализа из строки после pivot
func recordFromValues(symbol string, ts time.Time, values map[string]interface{}) *models.AnalysisRecord {
	str := func(key string) string {
		v, _ := values[key].(string)
		return v
	}
	num := func(key string) float64 {
		switch v := values[key].(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		}
		return 0
	}

	record := &models.AnalysisRecord{
		ID:           str("run_id"),
		Symbol:       symbol,
		Timestamp:    ts,
		LatestBar:    time.Unix(int64(num("latest_bar")), 0).UTC(),
		CurrentPrice: num("price"),
		Bars:         int(num("bars")),
		Result: models.AnalysisResult{
			BuyPercentage:  num("buy_percentage"),
			SellPercentage: num("sell_percentage"),
			Advice:         models.Direction(str("advice")),
		},
	}

	for _, label := range []models.Label{models.LabelRSI, models.LabelSMA, models.LabelMACD} {
		prefix := strings.ToLower(string(label))
		direction := models.Direction(str(prefix + "_direction"))
		if direction == "" {
			continue
		}
		record.Result.Signals = append(record.Result.Signals, models.SignalRecord{
			Label:     label,
			Direction: direction,
			Weight:    fusion.Weight(direction),
			Note:      str(prefix + "_note"),
		})
	}

	return record
}
