package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/skalibog/bfta/internal/analysis/aggregator"
	"github.com/skalibog/bfta/internal/analysis/fusion"
	"github.com/skalibog/bfta/internal/analysis/technical"
	"github.com/skalibog/bfta/internal/chart"
	"github.com/skalibog/bfta/internal/config"
	"github.com/skalibog/bfta/internal/exchange"
	"github.com/skalibog/bfta/internal/storage"
	"github.com/skalibog/bfta/internal/ui"
	"github.com/skalibog/bfta/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Обработка флагов командной строки
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации (YAML или TOML)")
	symbol := flag.String("symbol", "", "актив для анализа, например BTC; без флага запускается интерактивный выбор")
	days := flag.Int("days", 0, "количество дней истории (по умолчанию trading.default_days)")
	chartPath := flag.String("chart", "", "путь к HTML-файлу с графиком")
	asJSON := flag.Bool("json", false, "вывести отчет в формате JSON")
	history := flag.Int("history", 0, "показать N последних сохраненных анализов по активу")
	all := flag.Bool("all", false, "проанализировать все активы из trading.symbols")
	flag.Parse()

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		_ = logger.Init("info", "")
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка инициализации логгера: %v\n", err)
		return 1
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Некорректная конфигурация", zap.Error(err))
	}

	// Контекст отменяется по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем хранилище
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("Ошибка инициализации хранилища", zap.Error(err))
	}
	defer store.Close()

	// Инициализируем клиент биржи
	client, err := exchange.NewBinanceClient(cfg.Binance)
	if err != nil {
		logger.Fatal("Ошибка инициализации клиента биржи", zap.Error(err))
	}

	analyzer := technical.NewAnalyzer(cfg.Analysis.Technical, store)

	lookback := *days
	if lookback == 0 {
		lookback = cfg.Trading.DefaultDays
	}

	switch {
	case *all:
		return runAll(ctx, cfg, aggregator.NewAnalyzer(analyzer, client, store, cfg.Trading.Symbols), lookback, *asJSON)
	case *history > 0:
		if *symbol == "" {
			fmt.Fprintln(os.Stderr, "Для -history нужен -symbol")
			return 2
		}
		agg := aggregator.NewAnalyzer(analyzer, client, store, nil)
		records, err := agg.GetSignalHistory(ctx, *symbol, *history)
		if err != nil {
			logger.Error("Ошибка чтения истории", zap.Error(err))
			return 1
		}
		fmt.Print(ui.RenderHistory(client.PairSymbol(*symbol), records))
		return 0
	}

	selection, err := selectAsset(cfg, *symbol, lookback)
	if errors.Is(err, ui.ErrCancelled) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	report, err := analyzer.Run(ctx, client, selection.Asset, selection.Days)
	if err != nil {
		var ih *fusion.InsufficientHistoryError
		if errors.As(err, &ih) {
			fmt.Fprintf(os.Stderr, "Недостаточно истории для %s: получено %d дней, индикатору %s нужно %d. Увеличьте -days.\n",
				client.PairSymbol(selection.Asset), ih.Bars, ih.Indicator, ih.Required)
			return 1
		}
		logger.Error("Ошибка анализа", zap.String("asset", selection.Asset), zap.Error(err))
		return 1
	}

	if err := printReport(report, cfg.UI.Color, *asJSON); err != nil {
		logger.Error("Ошибка вывода отчета", zap.Error(err))
		return 1
	}

	path := *chartPath
	if path == "" {
		path = cfg.UI.ChartPath
	}
	if path != "" {
		if err := writeChart(path, report, analyzer.Thresholds()); err != nil {
			logger.Error("Ошибка сохранения графика", zap.String("path", path), zap.Error(err))
			return 1
		}
		logger.Info("График сохранен", zap.String("path", path))
	}

	return 0
}

// selectAsset берет актив из флагов или запрашивает его интерактивно
func selectAsset(cfg *config.Config, symbol string, days int) (ui.Selection, error) {
	if symbol == "" {
		if !cfg.UI.Interactive {
			return ui.Selection{}, errors.New("укажите актив через -symbol")
		}
		return ui.Prompt(cfg.Trading.Symbols, days, cfg.Trading.MinDays)
	}

	validated, err := ui.ValidateDays(strconv.Itoa(days), cfg.Trading.MinDays)
	if err != nil {
		return ui.Selection{}, err
	}
	return ui.Selection{Asset: strings.ToUpper(symbol), Days: validated}, nil
}

func runAll(ctx context.Context, cfg *config.Config, agg *aggregator.Analyzer, days int, asJSON bool) int {
	if _, err := ui.ValidateDays(strconv.Itoa(days), cfg.Trading.MinDays); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	results := agg.AnalyzeAll(ctx, days)
	ranked := aggregator.Ranked(results)

	if asJSON {
		if err := json.NewEncoder(os.Stdout).Encode(ranked); err != nil {
			logger.Error("Ошибка вывода JSON", zap.Error(err))
			return 1
		}
	} else {
		fmt.Println(ui.RenderRanking(ranked, cfg.UI.Color))
	}

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Asset, r.Err)
		}
	}
	if len(ranked) == 0 {
		return 1
	}
	return 0
}

func printReport(report *technical.Report, color, asJSON bool) error {
	if !asJSON {
		fmt.Print(ui.RenderReport(report, color))
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeChart(path string, report *technical.Report, th fusion.Thresholds) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s 1d", report.Symbol)
	if err := chart.Render(f, title, report.Series, report.Indicators, th); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
