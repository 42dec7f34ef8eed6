package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/pricescan/internal/pipeline"
)

// FileConfig represents the single-file configuration schema. Nested
// sections improve readability and map naturally to flags/env. Unknown keys
// are ignored by both decoders, so settings written by newer versions stay
// loadable.
type FileConfig struct {
	Input string `yaml:"input" json:"input"`
	Text  string `yaml:"text" json:"text"`
	Host  string `yaml:"host" json:"host"`

	Currency struct {
		Symbol string `yaml:"symbol" json:"symbol"`
		Code   string `yaml:"code" json:"code"`
	} `yaml:"currency" json:"currency"`

	Format struct {
		Thousands string `yaml:"thousands" json:"thousands"`
		Decimal   string `yaml:"decimal" json:"decimal"`
	} `yaml:"format" json:"format"`

	Extraction struct {
		MinConfidence        float64 `yaml:"minConfidence" json:"minConfidence"`
		MultiPassMode        bool    `yaml:"multiPassMode" json:"multiPassMode"`
		OnlyPass             string  `yaml:"onlyPass" json:"onlyPass"`
		Exhaustive           bool    `yaml:"exhaustive" json:"exhaustive"`
		EarlyExitConfidence  float64 `yaml:"earlyExitConfidence" json:"earlyExitConfidence"`
		ReturnMultiple       bool    `yaml:"returnMultiple" json:"returnMultiple"`
		AllowMultipleResults bool    `yaml:"allowMultipleResults" json:"allowMultipleResults"`
	} `yaml:"extraction" json:"extraction"`

	DebugMode bool `yaml:"debugMode" json:"debugMode"`
	Verbose   bool `yaml:"verbose" json:"verbose"`
}

// LoadFile reads a YAML or JSON config file into a FileConfig. The format
// is chosen by extension, with YAML the default.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config: %w", err)
	}
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse JSON config: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse YAML config: %w", err)
		}
	default:
		return fc, errors.New("unsupported config extension: " + filepath.Ext(path))
	}
	return fc, nil
}

// Apply folds file values into a Config, filling only fields the caller has
// not already set, so flag and env values keep precedence.
func (fc FileConfig) Apply(cfg *Config) {
	if cfg.InputPath == "" {
		cfg.InputPath = fc.Input
	}
	if cfg.Text == "" {
		cfg.Text = fc.Text
	}
	if cfg.Host == "" {
		cfg.Host = fc.Host
	}
	s := &cfg.Settings
	applySettings(s, fc)
	if !cfg.Verbose {
		cfg.Verbose = fc.Verbose
	}
}

func applySettings(s *pipeline.Settings, fc FileConfig) {
	if s.CurrencySymbol == "" {
		s.CurrencySymbol = fc.Currency.Symbol
	}
	if s.CurrencyCode == "" {
		s.CurrencyCode = fc.Currency.Code
	}
	if s.Thousands == "" {
		s.Thousands = fc.Format.Thousands
	}
	if s.Decimal == "" {
		s.Decimal = fc.Format.Decimal
	}
	if s.MinConfidence == 0 {
		s.MinConfidence = fc.Extraction.MinConfidence
	}
	if s.OnlyPass == "" {
		s.OnlyPass = fc.Extraction.OnlyPass
	}
	if s.EarlyExitConfidence == 0 {
		s.EarlyExitConfidence = fc.Extraction.EarlyExitConfidence
	}
	s.MultiPassMode = s.MultiPassMode || fc.Extraction.MultiPassMode
	s.Exhaustive = s.Exhaustive || fc.Extraction.Exhaustive
	s.ReturnMultiple = s.ReturnMultiple || fc.Extraction.ReturnMultiple
	s.AllowMultipleResults = s.AllowMultipleResults || fc.Extraction.AllowMultipleResults
	s.DebugMode = s.DebugMode || fc.DebugMode
}
