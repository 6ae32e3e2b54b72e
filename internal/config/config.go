package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v2"
)

// Config представляет полную конфигурацию приложения
type Config struct {
	Binance  BinanceConfig  `yaml:"binance" toml:"binance"`
	Trading  TradingConfig  `yaml:"trading" toml:"trading"`
	Analysis AnalysisConfig `yaml:"analysis" toml:"analysis"`
	Storage  StorageConfig  `yaml:"storage" toml:"storage"`
	UI       UIConfig       `yaml:"ui" toml:"ui"`
	Log      LogConfig      `yaml:"log" toml:"log"`
}

// BinanceConfig содержит настройки подключения к Binance
type BinanceConfig struct {
	APIKey         string `yaml:"api_key" toml:"api_key"`
	APISecret      string `yaml:"api_secret" toml:"api_secret"`
	Testnet        bool   `yaml:"testnet" toml:"testnet"`
	BaseURL        string `yaml:"base_url" toml:"base_url"`
	QuoteAsset     string `yaml:"quote_asset" toml:"quote_asset"`
	Interval       string `yaml:"interval" toml:"interval"`
	TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
}

// TradingConfig содержит список активов и глубину истории
type TradingConfig struct {
	Symbols     []string `yaml:"symbols" toml:"symbols"`
	DefaultDays int      `yaml:"default_days" toml:"default_days"`
	MinDays     int      `yaml:"min_days" toml:"min_days"`
}

// AnalysisConfig содержит настройки аналитических модулей
type AnalysisConfig struct {
	Technical TechnicalConfig `yaml:"technical" toml:"technical"`
}

// TechnicalConfig настройки технического анализа
type TechnicalConfig struct {
	RSIPeriod     int     `yaml:"rsi_period" toml:"rsi_period"`
	RSIOversold   float64 `yaml:"rsi_oversold" toml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought" toml:"rsi_overbought"`
	SMAShort      int     `yaml:"sma_short" toml:"sma_short"`
	SMALong       int     `yaml:"sma_long" toml:"sma_long"`
	EMAShort      int     `yaml:"ema_short" toml:"ema_short"`
	EMALong       int     `yaml:"ema_long" toml:"ema_long"`
	MACDFast      int     `yaml:"macd_fast" toml:"macd_fast"`
	MACDSlow      int     `yaml:"macd_slow" toml:"macd_slow"`
	MACDSignal    int     `yaml:"macd_signal" toml:"macd_signal"`
	Precision     int     `yaml:"precision" toml:"precision"`
}

// StorageConfig настройки журнала анализов
type StorageConfig struct {
	Type         string `yaml:"type" toml:"type"`
	URL          string `yaml:"url" toml:"url"`
	Token        string `yaml:"token" toml:"token"`
	Organization string `yaml:"organization" toml:"organization"`
	Bucket       string `yaml:"bucket" toml:"bucket"`
}

// UIConfig настройки пользовательского интерфейса
type UIConfig struct {
	Interactive bool   `yaml:"interactive" toml:"interactive"`
	Color       bool   `yaml:"color" toml:"color"`
	ChartPath   string `yaml:"chart_path" toml:"chart_path"`
}

// LogConfig настройки логирования
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file" toml:"file"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	cfg := &Config{
		UI: UIConfig{Interactive: true, Color: true},
	}
	cfg.applyDefaults()
	return cfg
}

// Load загружает конфигурацию из YAML или TOML файла, затем .env и переменные окружения.
// Отсутствующий файл не является ошибкой.
func Load(path string) (*Config, error) {
	cfg := &Config{
		UI: UIConfig{Interactive: true, Color: true},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
		if len(data) > 0 {
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
			}
		}
	}

	// .env может отсутствовать
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.applyDefaults()

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.Binance.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		c.Binance.APISecret = v
	}
	if v := os.Getenv("BINANCE_TESTNET"); v != "" {
		c.Binance.Testnet = v == "true"
	}
	if v := os.Getenv("INFLUX_URL"); v != "" {
		c.Storage.URL = v
	}
	if v := os.Getenv("INFLUX_TOKEN"); v != "" {
		c.Storage.Token = v
	}
	if v := os.Getenv("BFTA_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Binance.QuoteAsset == "" {
		c.Binance.QuoteAsset = "USDT"
	}
	if c.Binance.Interval == "" {
		c.Binance.Interval = "1d"
	}
	if c.Binance.TimeoutSeconds <= 0 {
		c.Binance.TimeoutSeconds = 10
	}

	if len(c.Trading.Symbols) == 0 {
		c.Trading.Symbols = []string{"BTC", "ETH", "SOL", "BNB"}
	}
	if c.Trading.DefaultDays <= 0 {
		c.Trading.DefaultDays = 100
	}
	if c.Trading.MinDays <= 0 {
		c.Trading.MinDays = 50
	}

	t := &c.Analysis.Technical
	if t.RSIPeriod <= 0 {
		t.RSIPeriod = 14
	}
	if t.RSIOversold == 0 {
		t.RSIOversold = 30
	}
	if t.RSIOverbought == 0 {
		t.RSIOverbought = 70
	}
	if t.SMAShort <= 0 {
		t.SMAShort = 20
	}
	if t.SMALong <= 0 {
		t.SMALong = 50
	}
	if t.EMAShort <= 0 {
		t.EMAShort = t.SMAShort
	}
	if t.EMALong <= 0 {
		t.EMALong = t.SMALong
	}
	if t.MACDFast <= 0 {
		t.MACDFast = 12
	}
	if t.MACDSlow <= 0 {
		t.MACDSlow = 26
	}
	if t.MACDSignal <= 0 {
		t.MACDSignal = 9
	}
	if t.Precision <= 0 {
		t.Precision = 2
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "none"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// RequiredBars количество дней, при котором все индикаторы определены на последнем баре
func (c *Config) RequiredBars() int {
	t := c.Analysis.Technical
	return max(t.RSIPeriod+1, t.SMALong, t.SMAShort)
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	t := c.Analysis.Technical
	if t.SMAShort >= t.SMALong {
		return fmt.Errorf("analysis.technical.sma_short (%d) должен быть меньше sma_long (%d)", t.SMAShort, t.SMALong)
	}
	if t.EMAShort >= t.EMALong {
		return fmt.Errorf("analysis.technical.ema_short (%d) должен быть меньше ema_long (%d)", t.EMAShort, t.EMALong)
	}
	if t.MACDFast >= t.MACDSlow {
		return fmt.Errorf("analysis.technical.macd_fast (%d) должен быть меньше macd_slow (%d)", t.MACDFast, t.MACDSlow)
	}
	if t.RSIOversold < 0 || t.RSIOverbought > 100 || t.RSIOversold >= t.RSIOverbought {
		return fmt.Errorf("analysis.technical: некорректные пороги RSI %.1f/%.1f", t.RSIOversold, t.RSIOverbought)
	}
	if required := c.RequiredBars(); c.Trading.MinDays < required {
		return fmt.Errorf("trading.min_days (%d) меньше прогрева индикаторов (%d)", c.Trading.MinDays, required)
	}
	if c.Trading.DefaultDays < c.Trading.MinDays {
		return fmt.Errorf("trading.default_days (%d) меньше min_days (%d)", c.Trading.DefaultDays, c.Trading.MinDays)
	}
	switch c.Storage.Type {
	case "none":
	case "influxdb":
		if c.Storage.URL == "" || c.Storage.Bucket == "" || c.Storage.Organization == "" {
			return fmt.Errorf("storage: для influxdb нужны url, organization и bucket")
		}
	default:
		return fmt.Errorf("storage.type: неизвестный тип %q", c.Storage.Type)
	}
	return nil
}
