package technical

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skalibog/bfta/internal/analysis/fusion"
	"github.com/skalibog/bfta/internal/analysis/indicator"
	"github.com/skalibog/bfta/internal/config"
	"github.com/skalibog/bfta/internal/storage"
	"github.com/skalibog/bfta/pkg/logger"
	"github.com/skalibog/bfta/pkg/models"
)

// MarketSource источник дневных свечей и текущей цены
type MarketSource interface {
	PairSymbol(asset string) string
	GetDailyBars(ctx context.Context, asset string, days int) ([]*models.Candle, error)
	GetCurrentPrice(ctx context.Context, asset string) (float64, error)
}

// Report результат анализа вместе с исходной серией и рассчитанными индикаторами
type Report struct {
	models.AnalysisRecord
	Series     *models.BarSeries `json:"-"`
	Indicators indicator.Set     `json:"indicators"`
}

// Analyzer реализует анализатор технических индикаторов
type Analyzer struct {
	config  config.TechnicalConfig
	storage storage.Storage
	now     func() time.Time
}

// NewAnalyzer создает новый анализатор технических индикаторов.
// storage может быть nil, тогда результаты не сохраняются.
func NewAnalyzer(cfg config.TechnicalConfig, st storage.Storage) *Analyzer {
	if st == nil {
		st = storage.NewNoopStorage()
	}
	return &Analyzer{
		config:  cfg,
		storage: st,
		now:     time.Now,
	}
}

// Params периоды индикаторов из конфигурации
func (a *Analyzer) Params() indicator.Params {
	return indicator.Params{
		RSIPeriod:  a.config.RSIPeriod,
		SMAShort:   a.config.SMAShort,
		SMALong:    a.config.SMALong,
		EMAShort:   a.config.EMAShort,
		EMALong:    a.config.EMALong,
		MACDFast:   a.config.MACDFast,
		MACDSlow:   a.config.MACDSlow,
		MACDSignal: a.config.MACDSignal,
	}
}

// Thresholds пороги сигналов из конфигурации
func (a *Analyzer) Thresholds() fusion.Thresholds {
	return fusion.Thresholds{
		RSIOversold:   a.config.RSIOversold,
		RSIOverbought: a.config.RSIOverbought,
		Precision:     int32(a.config.Precision),
	}
}

// RequiredBars минимальное количество дневных баров для анализа
func (a *Analyzer) RequiredBars() int {
	return a.Params().RequiredBars()
}

// Analyze рассчитывает индикаторы по серии и сводит их в рекомендацию
func (a *Analyzer) Analyze(series *models.BarSeries) (*Report, error) {
	if series == nil || series.Len() == 0 {
		return nil, models.ErrEmptySeries
	}

	set := indicator.Compute(series, a.Params())
	logIndicators(series.Symbol(), set)

	result, err := fusion.Evaluate(set, a.Thresholds())
	if err != nil {
		if errors.Is(err, fusion.ErrInsufficientHistory) {
			logger.Warn("Недостаточно истории для анализа",
				zap.String("symbol", series.Symbol()),
				zap.Int("bars", series.Len()),
				zap.Int("required", a.RequiredBars()),
				zap.Error(err))
		}
		return nil, err
	}

	latest := series.Latest()
	return &Report{
		AnalysisRecord: models.AnalysisRecord{
			Symbol:       series.Symbol(),
			Timestamp:    a.now().UTC(),
			LatestBar:    latest.OpenTime,
			CurrentPrice: latest.Close,
			Bars:         series.Len(),
			Result:       result,
		},
		Series:     series,
		Indicators: set,
	}, nil
}

// Run получает свечи и текущую цену актива, выполняет анализ и сохраняет результат в журнал
func (a *Analyzer) Run(ctx context.Context, source MarketSource, asset string, days int) (*Report, error) {
	if days <= 0 {
		return nil, fmt.Errorf("некорректное количество дней: %d", days)
	}

	var (
		candles  []*models.Candle
		price    float64
		priceErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := source.GetDailyBars(gctx, asset, days)
		if err != nil {
			return err
		}
		candles = c
		return nil
	})
	g.Go(func() error {
		// Без текущей цены анализ возможен, используется закрытие последнего бара
		price, priceErr = source.GetCurrentPrice(gctx, asset)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ошибка получения данных для %s: %w", asset, err)
	}

	series, err := models.NewBarSeries(source.PairSymbol(asset), candles)
	if err != nil {
		return nil, fmt.Errorf("некорректные свечи для %s: %w", asset, err)
	}

	report, err := a.Analyze(series)
	if err != nil {
		return nil, err
	}

	if priceErr != nil {
		logger.Warn("Не удалось получить текущую цену, используется закрытие последнего бара",
			zap.String("symbol", series.Symbol()),
			zap.Error(priceErr))
	} else {
		report.CurrentPrice = price
	}
	report.ID = uuid.NewString()

	a.save(ctx, candles, report)

	logger.Info("Анализ завершен",
		zap.String("symbol", report.Symbol),
		zap.String("id", report.ID),
		zap.String("advice", string(report.Result.Advice)),
		zap.Float64("buy", report.Result.BuyPercentage),
		zap.Float64("sell", report.Result.SellPercentage))

	return report, nil
}

// save пишет свечи и результат в журнал; ошибки журнала не прерывают анализ
func (a *Analyzer) save(ctx context.Context, candles []*models.Candle, report *Report) {
	if err := a.storage.SaveCandles(ctx, candles); err != nil {
		logger.Warn("Не удалось сохранить свечи", zap.String("symbol", report.Symbol), zap.Error(err))
	}
	if err := a.storage.SaveAnalysis(ctx, &report.AnalysisRecord); err != nil {
		logger.Warn("Не удалось сохранить анализ", zap.String("symbol", report.Symbol), zap.Error(err))
	}
}

func logIndicators(symbol string, set indicator.Set) {
	latest := func(s indicator.Series) zap.Field {
		return zap.Any("latest", latestValue(s))
	}
	logger.Debug("RSI рассчитан", zap.String("symbol", symbol), zap.Int("period", set.RSIPeriod), latest(set.RSI))
	logger.Debug("SMA рассчитаны", zap.String("symbol", symbol),
		zap.Int("short", set.SMAShort), zap.Any("short_latest", latestValue(set.MA.SMAShort)),
		zap.Int("long", set.SMALong), zap.Any("long_latest", latestValue(set.MA.SMALong)))
	logger.Debug("EMA рассчитаны", zap.String("symbol", symbol),
		zap.Int("short", set.EMAShort), zap.Any("short_latest", latestValue(set.MA.EMAShort)),
		zap.Int("long", set.EMALong), zap.Any("long_latest", latestValue(set.MA.EMALong)))
	logger.Debug("MACD рассчитан", zap.String("symbol", symbol),
		latest(set.MACD.MACD), zap.Any("signal_latest", latestValue(set.MACD.Signal)))
}

// latestValue последнее значение серии или nil, если оно не определено
func latestValue(s indicator.Series) interface{} {
	if v, ok := s.Latest(); ok {
		return v
	}
	return nil
}
