package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Стили UI
var (
	// Основные цвета
	primaryColor   = lipgloss.Color("#0077cc")
	secondaryColor = lipgloss.Color("#333333")
	errorColor     = lipgloss.Color("#cc3300")
	successColor   = lipgloss.Color("#33cc33")
	warningColor   = lipgloss.Color("#cccc00")

	appStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primaryColor).
			Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#222222")).
			Foreground(successColor)
	errorStyle  = lipgloss.NewStyle().Foreground(errorColor)
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999")).
			Padding(0, 1)
)

// ErrCancelled пользователь вышел из выбора
var ErrCancelled = errors.New("выбор отменен")

// Selection выбранный актив и глубина истории
type Selection struct {
	Asset string
	Days  int
}

type stage int

const (
	stageSymbol stage = iota
	stageDays
	stageDone
)

// promptModel модель bubbletea для выбора актива и количества дней
type promptModel struct {
	symbols   []string
	cursor    int
	stage     stage
	days      string
	minDays   int
	err       string
	selection Selection
	cancelled bool
}

func newPromptModel(symbols []string, defaultDays, minDays int) promptModel {
	return promptModel{
		symbols: symbols,
		days:    strconv.Itoa(defaultDays),
		minDays: minDays,
	}
}

// Prompt интерактивно запрашивает актив из списка и количество дней истории
func Prompt(symbols []string, defaultDays, minDays int) (Selection, error) {
	if len(symbols) == 0 {
		return Selection{}, errors.New("список активов пуст")
	}

	final, err := tea.NewProgram(newPromptModel(symbols, defaultDays, minDays)).Run()
	if err != nil {
		return Selection{}, fmt.Errorf("ошибка запуска UI: %w", err)
	}

	m, ok := final.(promptModel)
	if !ok || m.cancelled || m.stage != stageDone {
		return Selection{}, ErrCancelled
	}
	return m.selection, nil
}

// ValidateDays проверяет введенное количество дней
func ValidateDays(input string, minDays int) (int, error) {
	days, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("введите целое число дней")
	}
	if days < minDays {
		return 0, fmt.Errorf("нужно не меньше %d дней истории", minDays)
	}
	return days, nil
}

// Методы для bubbletea
func (m promptModel) Init() tea.Cmd {
	return nil
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if key.String() == "ctrl+c" {
		m.cancelled = true
		return m, tea.Quit
	}

	switch m.stage {
	case stageSymbol:
		return m.updateSymbol(key)
	case stageDays:
		return m.updateDays(key)
	}
	return m, nil
}

func (m promptModel) updateSymbol(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "q", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "up", "k":
		m.cursor = max(0, m.cursor-1)
	case "down", "j":
		m.cursor = min(len(m.symbols)-1, m.cursor+1)
	case "enter":
		m.selection.Asset = m.symbols[m.cursor]
		m.stage = stageDays
	}
	return m, nil
}

func (m promptModel) updateDays(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.stage = stageSymbol
		m.err = ""
	case tea.KeyBackspace:
		if len(m.days) > 0 {
			m.days = m.days[:len(m.days)-1]
		}
	case tea.KeyEnter:
		days, err := ValidateDays(m.days, m.minDays)
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.selection.Days = days
		m.stage = stageDone
		return m, tea.Quit
	case tea.KeyRunes:
		for _, r := range key.Runes {
			if r >= '0' && r <= '9' {
				m.days += string(r)
			}
		}
		m.err = ""
	}
	return m, nil
}

func (m promptModel) View() string {
	if m.stage == stageDone || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("BFTA - дневной технический анализ Binance"))
	b.WriteString("\n\n")

	switch m.stage {
	case stageSymbol:
		b.WriteString("Выберите актив:\n")
		for i, s := range m.symbols {
			line := "  " + s
			if i == m.cursor {
				line = selectedStyle.Render("> " + s)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n" + footerStyle.Render("Клавиши: ↑/↓ - навигация, Enter - выбор, Q - выход"))
	case stageDays:
		fmt.Fprintf(&b, "Актив: %s\n", m.selection.Asset)
		fmt.Fprintf(&b, "Количество дней (минимум %d): %s█\n", m.minDays, m.days)
		if m.err != "" {
			b.WriteString(errorStyle.Render(m.err) + "\n")
		}
		b.WriteString("\n" + footerStyle.Render("Клавиши: Enter - анализ, Esc - назад, Ctrl+C - выход"))
	}

	return appStyle.Render(b.String())
}
