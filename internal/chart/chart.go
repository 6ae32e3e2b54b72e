// Package chart строит HTML-график свечей с наложенными скользящими средними,
// панелями объема, MACD и RSI.
package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/skalibog/bfta/internal/analysis/fusion"
	"github.com/skalibog/bfta/internal/analysis/indicator"
	"github.com/skalibog/bfta/pkg/models"
)

const (
	dateLayout = "2006-01-02"
	width      = "1200px"
	// пропуск в данных echarts
	missing = "-"
)

var (
	noSymbols = charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})
	dashed    = charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"})
)

// Render пишет HTML-страницу с графиками в w.
// Неопределенные значения индикаторов выводятся как пропуски.
func Render(w io.Writer, title string, series *models.BarSeries, set indicator.Set, th fusion.Thresholds) error {
	if series == nil || series.Len() == 0 {
		return models.ErrEmptySeries
	}

	dates := make([]string, series.Len())
	for i, t := range series.Times() {
		dates[i] = t.Format(dateLayout)
	}

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(
		priceChart(title, dates, series, set),
		volumeChart(dates, series),
		macdChart(dates, set),
		rsiChart(dates, set, th),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("ошибка построения графика: %w", err)
	}
	return nil
}

func priceChart(title string, dates []string, series *models.BarSeries, set indicator.Set) *charts.Kline {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: width, Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30px"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	candles := make([]opts.KlineData, series.Len())
	closes := make([]opts.LineData, series.Len())
	latest := series.Latest().Close
	for i, c := range series.Bars() {
		// порядок echarts: open, close, low, high
		candles[i] = opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}}
		closes[i] = opts.LineData{Value: latest}
	}
	kline.SetXAxis(dates).AddSeries("Свечи", candles)

	overlay := charts.NewLine()
	overlay.SetXAxis(dates).
		AddSeries(fmt.Sprintf("SMA %d", set.SMAShort), lineData(set.MA.SMAShort), noSymbols).
		AddSeries(fmt.Sprintf("SMA %d", set.SMALong), lineData(set.MA.SMALong), noSymbols).
		AddSeries(fmt.Sprintf("EMA %d", set.EMAShort), lineData(set.MA.EMAShort), noSymbols).
		AddSeries(fmt.Sprintf("EMA %d", set.EMALong), lineData(set.MA.EMALong), noSymbols).
		AddSeries("Последнее закрытие", closes, noSymbols, dashed)

	kline.Overlap(overlay)
	return kline
}

func volumeChart(dates []string, series *models.BarSeries) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: width, Height: "200px"}),
		charts.WithTitleOpts(opts.Title{Subtitle: "Объем"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	volumes := make([]opts.BarData, series.Len())
	for i, c := range series.Bars() {
		volumes[i] = opts.BarData{Value: c.Volume}
	}
	bar.SetXAxis(dates).AddSeries("Объем", volumes)
	return bar
}

func macdChart(dates []string, set indicator.Set) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: width, Height: "240px"}),
		charts.WithTitleOpts(opts.Title{Subtitle: fmt.Sprintf("MACD %d/%d/%d", set.MACDFast, set.MACDSlow, set.MACDSignal)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(dates).
		AddSeries("MACD", lineData(set.MACD.MACD), noSymbols).
		AddSeries("Сигнальная", lineData(set.MACD.Signal), noSymbols)
	return line
}

func rsiChart(dates []string, set indicator.Set, th fusion.Thresholds) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: width, Height: "240px"}),
		charts.WithTitleOpts(opts.Title{Subtitle: fmt.Sprintf("RSI %d", set.RSIPeriod)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
	)
	line.SetXAxis(dates).
		AddSeries("RSI", lineData(set.RSI), noSymbols).
		AddSeries("Перепроданность", constant(len(dates), th.RSIOversold), noSymbols, dashed).
		AddSeries("Перекупленность", constant(len(dates), th.RSIOverbought), noSymbols, dashed)
	return line
}

func lineData(s indicator.Series) []opts.LineData {
	out := make([]opts.LineData, len(s))
	for i, p := range s {
		if !p.Defined {
			out[i] = opts.LineData{Value: missing}
			continue
		}
		out[i] = opts.LineData{Value: p.Value}
	}
	return out
}

func constant(n int, v float64) []opts.LineData {
	out := make([]opts.LineData, n)
	for i := range out {
		out[i] = opts.LineData{Value: v}
	}
	return out
}
