package aggregator

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/skalibog/bfta/internal/analysis/technical"
	"github.com/skalibog/bfta/internal/storage"
	"github.com/skalibog/bfta/pkg/logger"
	"github.com/skalibog/bfta/pkg/models"
)

// Result итог анализа одного актива: отчет или ошибка
type Result struct {
	Asset  string
	Report *technical.Report
	Err    error
}

// Analyzer запускает технический анализ по списку активов
type Analyzer struct {
	technical *technical.Analyzer
	source    technical.MarketSource
	storage   storage.Storage
	symbols   []string
}

// NewAnalyzer создает новый анализатор
func NewAnalyzer(tech *technical.Analyzer, source technical.MarketSource, st storage.Storage, symbols []string) *Analyzer {
	if st == nil {
		st = storage.NewNoopStorage()
	}
	return &Analyzer{
		technical: tech,
		source:    source,
		storage:   st,
		symbols:   symbols,
	}
}

// AnalyzeAll выполняет анализ для всех активов параллельно.
// Ошибка одного актива не останавливает остальные; результаты в порядке списка активов.
func (a *Analyzer) AnalyzeAll(ctx context.Context, days int) []Result {
	results := make([]Result, len(a.symbols))
	var wg sync.WaitGroup

	for i, asset := range a.symbols {
		wg.Add(1)
		go func(i int, asset string) {
			defer wg.Done()

			report, err := a.technical.Run(ctx, a.source, asset, days)
			if err != nil {
				logger.Warn("Анализ актива недоступен", zap.String("asset", asset), zap.Error(err))
			}
			results[i] = Result{Asset: asset, Report: report, Err: err}
		}(i, asset)
	}

	wg.Wait()
	return results
}

// Ranked возвращает успешные отчеты, упорядоченные по перевесу покупок над продажами
func Ranked(results []Result) []*technical.Report {
	var reports []*technical.Report
	for _, r := range results {
		if r.Err == nil && r.Report != nil {
			reports = append(reports, r.Report)
		}
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return edge(reports[i]) > edge(reports[j])
	})
	return reports
}

func edge(r *technical.Report) float64 {
	return r.Result.BuyPercentage - r.Result.SellPercentage
}

// GetSignalHistory возвращает историю анализов для актива
func (a *Analyzer) GetSignalHistory(ctx context.Context, asset string, limit int) ([]*models.AnalysisRecord, error) {
	return a.storage.History(ctx, a.source.PairSymbol(asset), limit)
}
