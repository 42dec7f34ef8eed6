package app

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv fills unset Config fields from PRICESCAN_* environment
// variables. Flags set by the caller keep precedence; env beats the config
// file.
func ApplyEnv(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = os.Getenv("PRICESCAN_HOST")
	}
	s := &cfg.Settings
	if s.CurrencySymbol == "" {
		s.CurrencySymbol = os.Getenv("PRICESCAN_CURRENCY_SYMBOL")
	}
	if s.CurrencyCode == "" {
		s.CurrencyCode = os.Getenv("PRICESCAN_CURRENCY_CODE")
	}
	if s.Thousands == "" {
		s.Thousands = os.Getenv("PRICESCAN_THOUSANDS")
	}
	if s.Decimal == "" {
		s.Decimal = os.Getenv("PRICESCAN_DECIMAL")
	}
	if s.MinConfidence == 0 {
		if v, err := strconv.ParseFloat(os.Getenv("PRICESCAN_MIN_CONFIDENCE"), 64); err == nil {
			s.MinConfidence = v
		}
	}
	if envBool("PRICESCAN_DEBUG") {
		s.DebugMode = true
	}
	if envBool("PRICESCAN_EXHAUSTIVE") {
		s.Exhaustive = true
	}
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes"
}
