package storage

import (
	"context"
	"fmt"
	"strings"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"

	"github.com/skalibog/bfta/internal/config"
	"github.com/skalibog/bfta/pkg/logger"
	"github.com/skalibog/bfta/pkg/models"
)

const (
	measurementCandles  = "candles"
	measurementAnalyses = "analyses"
)

// InfluxDBStorage реализует интерфейс Storage с использованием InfluxDB
type InfluxDBStorage struct {
	client   influxdb2.Client
	queryAPI api.QueryAPI
	writeAPI api.WriteAPIBlocking
	org      string
	bucket   string
}

// NewInfluxDBStorage создает новое хранилище InfluxDB
func NewInfluxDBStorage(ctx context.Context, cfg config.StorageConfig) (*InfluxDBStorage, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	// Проверка соединения
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ошибка соединения с InfluxDB: %w", err)
	}
	if health == nil || health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("InfluxDB не в состоянии 'pass': %+v", health)
	}

	return &InfluxDBStorage{
		client:   client,
		queryAPI: client.QueryAPI(cfg.Organization),
		writeAPI: client.WriteAPIBlocking(cfg.Organization, cfg.Bucket),
		org:      cfg.Organization,
		bucket:   cfg.Bucket,
	}, nil
}

// Close закрывает соединение с базой данных
func (s *InfluxDBStorage) Close() {
	s.client.Close()
}

// SaveCandles сохраняет свечи, на которых был построен анализ
func (s *InfluxDBStorage) SaveCandles(ctx context.Context, candles []*models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	points := make([]*write.Point, len(candles))
	for i, c := range candles {
		points[i] = candlePoint(c)
	}
	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("ошибка записи свечей: %w", err)
	}
	logger.Debug("Свечи записаны в InfluxDB", zap.String("symbol", candles[0].Symbol), zap.Int("count", len(points)))
	return nil
}

// SaveAnalysis сохраняет результат анализа
func (s *InfluxDBStorage) SaveAnalysis(ctx context.Context, record *models.AnalysisRecord) error {
	if err := s.writeAPI.WritePoint(ctx, analysisPoint(record)); err != nil {
		return fmt.Errorf("ошибка записи анализа: %w", err)
	}
	logger.Debug("Анализ записан в InfluxDB", zap.String("symbol", record.Symbol), zap.String("id", record.ID))
	return nil
}

// History получает последние сохраненные анализы по паре, новые первыми
func (s *InfluxDBStorage) History(ctx context.Context, symbol string, limit int) ([]*models.AnalysisRecord, error) {
	query := fmt.Sprintf(`
		from(bucket: "%s")
			|> range(start: -365d)
			|> filter(fn: (r) => r._measurement == "%s")
			|> filter(fn: (r) => r.symbol == "%s")
			|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
			|> group()
			|> sort(columns: ["_time"], desc: true)
			|> limit(n: %d)
	`, s.bucket, measurementAnalyses, symbol, limit)

	result, err := s.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса истории анализов: %w", err)
	}

	var records []*models.AnalysisRecord
	for result.Next() {
		values := result.Record().Values()
		records = append(records, recordFromValues(symbol, result.Record().Time(), values))
	}

	if result.Err() != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", result.Err())
	}

	return records, nil
}

func candlePoint(c *models.Candle) *write.Point {
	return influxdb2.NewPoint(
		measurementCandles,
		map[string]string{
			"symbol":   c.Symbol,
			"interval": c.Interval,
		},
		map[string]interface{}{
			"open":   c.Open,
			"high":   c.High,
			"low":    c.Low,
			"close":  c.Close,
			"volume": c.Volume,
		},
		c.OpenTime,
	)
}

func analysisPoint(r *models.AnalysisRecord) *write.Point {
	fields := map[string]interface{}{
		"price":           r.CurrentPrice,
		"bars":            int64(r.Bars),
		"latest_bar":      r.LatestBar.Unix(),
		"buy_percentage":  r.Result.BuyPercentage,
		"sell_percentage": r.Result.SellPercentage,
		"advice":          string(r.Result.Advice),
	}
	for _, sig := range r.Result.Signals {
		prefix := strings.ToLower(string(sig.Label))
		fields[prefix+"_direction"] = string(sig.Direction)
		fields[prefix+"_note"] = sig.Note
	}

	return influxdb2.NewPoint(
		measurementAnalyses,
		map[string]string{
			"symbol": r.Symbol,
			"run_id": r.ID,
		},
		fields,
		r.Timestamp,
	)
}
