package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/skalibog/bfta/internal/analysis/technical"
	"github.com/skalibog/bfta/pkg/models"
)

const dateLayout = "2006-01-02"

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#ffffff")).
	Background(secondaryColor).
	Padding(0, 1)

// DirectionText локализованное название направления
func DirectionText(d models.Direction) string {
	switch d {
	case models.Buy:
		return "ПОКУПКА"
	case models.Sell:
		return "ПРОДАЖА"
	default:
		return "НЕЙТРАЛЬНО"
	}
}

func directionColor(d models.Direction) text.Colors {
	switch d {
	case models.Buy:
		return text.Colors{text.FgGreen}
	case models.Sell:
		return text.Colors{text.FgRed}
	default:
		return text.Colors{text.FgYellow}
	}
}

func directionStyle(d models.Direction) lipgloss.Style {
	switch d {
	case models.Buy:
		return lipgloss.NewStyle().Foreground(successColor).Bold(true)
	case models.Sell:
		return lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(warningColor)
	}
}

// RenderReport форматирует отчет анализа для терминала
func RenderReport(report *technical.Report, color bool) string {
	var b strings.Builder

	title := fmt.Sprintf("%s - дневной технический анализ", report.Symbol)
	if color {
		title = titleStyle.Render(title)
	}
	b.WriteString(title + "\n\n")

	fmt.Fprintf(&b, "Текущая цена:    %.2f\n", report.CurrentPrice)
	fmt.Fprintf(&b, "Последний бар:   %s\n", report.LatestBar.Format(dateLayout))
	fmt.Fprintf(&b, "Баров в анализе: %d\n\n", report.Bars)

	b.WriteString(signalsTable(report.Result.Signals, color) + "\n\n")

	fmt.Fprintf(&b, "Покупка: %.2f%%   Продажа: %.2f%%\n", report.Result.BuyPercentage, report.Result.SellPercentage)

	advice := DirectionText(report.Result.Advice)
	if color {
		advice = directionStyle(report.Result.Advice).Render(advice)
	}
	fmt.Fprintf(&b, "Рекомендация: %s\n", advice)

	return b.String()
}

func signalsTable(signals []models.SignalRecord, color bool) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Индикатор", "Сигнал", "Вес", "Комментарий"})
	for _, s := range signals {
		direction := DirectionText(s.Direction)
		if color {
			direction = directionColor(s.Direction).Sprint(direction)
		}
		t.AppendRow(table.Row{string(s.Label), direction, fmt.Sprintf("%+d", s.Weight), s.Note})
	}
	if color {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleLight)
	}
	return t.Render()
}

// RenderRanking сводная таблица по нескольким активам
func RenderRanking(reports []*technical.Report, color bool) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Пара", "Цена", "Покупка %", "Продажа %", "Рекомендация"})
	for i, r := range reports {
		advice := DirectionText(r.Result.Advice)
		if color {
			advice = directionColor(r.Result.Advice).Sprint(advice)
		}
		t.AppendRow(table.Row{
			i + 1,
			r.Symbol,
			fmt.Sprintf("%.2f", r.CurrentPrice),
			fmt.Sprintf("%.2f", r.Result.BuyPercentage),
			fmt.Sprintf("%.2f", r.Result.SellPercentage),
			advice,
		})
	}
	t.SetStyle(table.StyleLight)

	header := "СВОДКА"
	if color {
		header = headerStyle.Render(header)
	}
	return header + "\n" + t.Render()
}

// RenderHistory таблица ранее сохраненных анализов
func RenderHistory(symbol string, records []*models.AnalysisRecord) string {
	if len(records) == 0 {
		return fmt.Sprintf("История анализов для %s пуста\n", symbol)
	}

	t := table.NewWriter()
	t.SetTitle("История анализов " + symbol)
	t.AppendHeader(table.Row{"Время", "Последний бар", "Цена", "Покупка %", "Продажа %", "Рекомендация"})
	for _, r := range records {
		t.AppendRow(table.Row{
			r.Timestamp.Format("2006-01-02 15:04"),
			r.LatestBar.Format(dateLayout),
			fmt.Sprintf("%.2f", r.CurrentPrice),
			fmt.Sprintf("%.2f", r.Result.BuyPercentage),
			fmt.Sprintf("%.2f", r.Result.SellPercentage),
			DirectionText(r.Result.Advice),
		})
	}
	t.SetStyle(table.StyleLight)
	return t.Render() + "\n"
}
