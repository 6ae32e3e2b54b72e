package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skalibog/bfta/internal/config"
	"github.com/skalibog/bfta/pkg/logger"
	"github.com/skalibog/bfta/pkg/models"
)

const testnetBaseURL = "https://testnet.binance.vision"

// codeInvalidSymbol код ошибки Binance для несуществующей пары
const codeInvalidSymbol = -1121

// ErrUnknownSymbol биржа не знает такую торговую пару
var ErrUnknownSymbol = errors.New("неизвестная торговая пара")

// BinanceClient клиент для получения дневных свечей и текущей цены со спота Binance
type BinanceClient struct {
	spot       *binance.Client
	quoteAsset string
	interval   string
}

// NewBinanceClient создает новый клиент Binance
func NewBinanceClient(cfg config.BinanceConfig) (*BinanceClient, error) {
	spotClient := binance.NewClient(cfg.APIKey, cfg.APISecret)

	switch {
	case cfg.BaseURL != "":
		spotClient.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	case cfg.Testnet:
		spotClient.BaseURL = testnetBaseURL
	}
	if cfg.TimeoutSeconds > 0 {
		spotClient.HTTPClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	}

	quote := cfg.QuoteAsset
	if quote == "" {
		quote = "USDT"
	}
	interval := cfg.Interval
	if interval == "" {
		interval = "1d"
	}

	return &BinanceClient{
		spot:       spotClient,
		quoteAsset: strings.ToUpper(quote),
		interval:   interval,
	}, nil
}

// PairSymbol собирает торговую пару из актива и котируемой валюты, BTC -> BTCUSDT
func (c *BinanceClient) PairSymbol(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset)) + c.quoteAsset
}

// GetDailyBars получает последние days дневных свечей по активу, отсортированные по времени открытия
func (c *BinanceClient) GetDailyBars(ctx context.Context, asset string, days int) ([]*models.Candle, error) {
	if days <= 0 {
		return nil, fmt.Errorf("некорректное количество дней: %d", days)
	}
	symbol := c.PairSymbol(asset)

	klines, err := c.spot.NewKlinesService().
		Symbol(symbol).
		Interval(c.interval).
		Limit(days).
		Do(ctx)
	if err != nil {
		return nil, wrapAPIError(symbol, "ошибка получения свечей", err)
	}

	candles := make([]*models.Candle, 0, len(klines))
	for i, k := range klines {
		candle, err := c.toCandle(symbol, k)
		if err != nil {
			return nil, fmt.Errorf("свеча %d для %s: %w", i, symbol, err)
		}
		candles = append(candles, candle)
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].OpenTime.Before(candles[j].OpenTime)
	})

	logger.Debug("Получены свечи",
		zap.String("symbol", symbol),
		zap.String("interval", c.interval),
		zap.Int("requested", days),
		zap.Int("received", len(candles)))

	return candles, nil
}

// GetCurrentPrice получает текущую цену актива
func (c *BinanceClient) GetCurrentPrice(ctx context.Context, asset string) (float64, error) {
	symbol := c.PairSymbol(asset)

	prices, err := c.spot.NewListPricesService().
		Symbol(symbol).
		Do(ctx)
	if err != nil {
		return 0, wrapAPIError(symbol, "ошибка получения цены", err)
	}

	for _, p := range prices {
		if p.Symbol != symbol {
			continue
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return 0, fmt.Errorf("ошибка парсинга цены %q: %w", p.Price, err)
		}
		return price.InexactFloat64(), nil
	}

	return 0, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
}

func (c *BinanceClient) toCandle(symbol string, k *binance.Kline) (*models.Candle, error) {
	fields := [5]string{k.Open, k.High, k.Low, k.Close, k.Volume}
	var parsed [5]float64
	for i, raw := range fields {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("ошибка парсинга %q: %w", raw, err)
		}
		parsed[i] = d.InexactFloat64()
	}

	return &models.Candle{
		Symbol:    symbol,
		Interval:  c.interval,
		OpenTime:  time.UnixMilli(k.OpenTime).UTC(),
		Open:      parsed[0],
		High:      parsed[1],
		Low:       parsed[2],
		Close:     parsed[3],
		Volume:    parsed[4],
		CloseTime: time.UnixMilli(k.CloseTime).UTC(),
	}, nil
}

func wrapAPIError(symbol, msg string, err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) && apiErr.Code == codeInvalidSymbol {
		return fmt.Errorf("%s: %w: %s", msg, ErrUnknownSymbol, symbol)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
