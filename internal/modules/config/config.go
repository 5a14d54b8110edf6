package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	okxAPIKeyENV      = "OKX_API_KEY"
	okxAPISecretENV   = "OKX_API_SECRET"
	okxPassphraseENV  = "OKX_API_PASSPHRASE"
	geminiKeyENV      = "GEMINI_KEY"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB      string `yaml:"db_dsn"`
	Service struct {
		Host       string `yaml:"host"`
		PublicPort int    `yaml:"public_port"`
		JaegerHost string `yaml:"jaeger_host"`
		JaegerPort int    `yaml:"jaeger_port"`
	} `yaml:"service"`

	OKX struct {
		APIKey     string `yaml:"api_key"`
		APISecret  string `yaml:"api_secret"`
		Passphrase string `yaml:"passphrase"`
		// Порядок проб режимов подключения: sandbox / live / public.
		// Выбор режима — операторская настройка, автодетекта нет.
		AuthModes []string `yaml:"auth_modes"`
	} `yaml:"okx"`

	Classifier struct {
		// Имя модели резолвится один раз на старте (cmd/modelprobe),
		// ядро получает уже готовое значение.
		Model     string `yaml:"model"`
		APIKey    string `yaml:"api_key"`
		MaxTokens int    `yaml:"max_tokens"`
		// Длительности только через env (CLASSIFIER_TIMEOUT и т.п.):
		// yaml.v2 не знает форму "30s".
		Timeout time.Duration `yaml:"-"`
	} `yaml:"classifier"`

	Scan struct {
		Symbols     []string      `yaml:"symbols"`
		Timeframe   string        `yaml:"timeframe"`
		CandleLimit int           `yaml:"candle_limit"`
		Threshold   int           `yaml:"threshold"` // минимальный score для BUY
		StopPct     float64       `yaml:"stop_pct"`  // симулируемый стоп от цены входа, %
		Workers     int           `yaml:"workers"`
		Pace        time.Duration `yaml:"-"`      // пауза между запусками символов (SCAN_PACE)
		Interval    time.Duration `yaml:"-"`      // период между циклами (SCAN_INTERVAL)
		Mosaic      bool          `yaml:"mosaic"` // один батч-вызов вместо по-символьных
	} `yaml:"scan"`
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}

	config := Config{}
	config.Scan.Symbols = listFromEnv("SCAN_SYMBOLS",
		[]string{"BTC-USDT", "ETH-USDT", "SOL-USDT", "FET-USDT", "SAND-USDT"})
	config.Scan.Timeframe = getenvDefault("TIMEFRAME", "15m")
	config.Scan.CandleLimit = intFromEnv("CANDLE_LIMIT", 50)
	config.Scan.Threshold = intFromEnv("SCORE_THRESHOLD", 85)
	config.Scan.StopPct = floatFromEnv("STOP_PCT", 0.5)
	config.Scan.Workers = intFromEnv("SCAN_WORKERS", 8)
	config.Scan.Pace = durationFromEnv("SCAN_PACE", "1s")
	config.Scan.Interval = durationFromEnv("SCAN_INTERVAL", "15m")
	config.OKX.AuthModes = listFromEnv("OKX_AUTH_MODES", []string{"sandbox", "live", "public"})
	config.Service.PublicPort = intFromEnv("PUBLIC_PORT", 8080)
	config.Service.JaegerHost = getenvDefault("JAEGER_HOST", "localhost")
	config.Service.JaegerPort = intFromEnv("JAEGER_PORT", 6831)
	config.Classifier.Model = getenvDefault("CLASSIFIER_MODEL", "gemini-1.5-flash")
	config.Classifier.MaxTokens = intFromEnv("CLASSIFIER_MAX_TOKENS", 1024)
	config.Classifier.Timeout = durationFromEnv("CLASSIFIER_TIMEOUT", "30s")

	if file, err := os.Open("configs/" + configFileName); err == nil {
		decoder := yaml.NewDecoder(file)
		err = decoder.Decode(&config)
		_ = file.Close()
		if err != nil {
			return nil, err
		}
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if v := os.Getenv(okxAPIKeyENV); v != "" {
		config.OKX.APIKey = v
	}
	if v := os.Getenv(okxAPISecretENV); v != "" {
		config.OKX.APISecret = v
	}
	if v := os.Getenv(okxPassphraseENV); v != "" {
		config.OKX.Passphrase = v
	}
	if v := os.Getenv(geminiKeyENV); v != "" {
		config.Classifier.APIKey = v
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}

func listFromEnv(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
