package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/hyperifyio/pricescan/internal/app"
	"github.com/hyperifyio/pricescan/internal/pattern"
	"github.com/hyperifyio/pricescan/internal/pipeline"
	"github.com/hyperifyio/pricescan/internal/sites"
	"github.com/hyperifyio/pricescan/internal/textpattern"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath string
		cfg        app.Config
	)

	flag.StringVar(&configPath, "config", "", "Path to YAML/JSON config file")
	flag.StringVar(&cfg.InputPath, "input", "", "Path to HTML or text input ('-' for stdin)")
	flag.StringVar(&cfg.Text, "text", "", "Inline text input instead of -input")
	flag.StringVar(&cfg.Host, "host", os.Getenv("PRICESCAN_HOST"), "Site host for handler lookup, e.g. amazon.com")
	flag.StringVar(&cfg.Settings.CurrencySymbol, "currency.symbol", "", "Currency symbol, e.g. '$' (default: inferred)")
	flag.StringVar(&cfg.Settings.CurrencyCode, "currency.code", "", "ISO currency code, e.g. USD (default: inferred)")
	flag.StringVar(&cfg.Settings.Thousands, "format.thousands", "", "Thousands separator style: commas, spacesAndDots, none")
	flag.StringVar(&cfg.Settings.Decimal, "format.decimal", "", "Decimal separator style: dot, comma")
	flag.Float64Var(&cfg.Settings.MinConfidence, "min.confidence", 0, "Discard candidates below this confidence (0 disables)")
	flag.Float64Var(&cfg.Settings.EarlyExitConfidence, "early.exit", 0, "Stop at the first candidate at or above this confidence (0 disables)")
	flag.StringVar(&cfg.Settings.OnlyPass, "only.pass", "", "Run only the named pass (debug aid)")
	flag.BoolVar(&cfg.Settings.MultiPassMode, "multipass", false, "Run every pass even after a site handler succeeds")
	flag.BoolVar(&cfg.Settings.Exhaustive, "exhaustive", false, "Run every pass and return the full ranked set")
	flag.BoolVar(&cfg.Settings.ReturnMultiple, "multiple", false, "Return all ranked candidates, not only the best")
	flag.BoolVar(&cfg.Settings.DebugMode, "debug", false, "Emit per-pass trace entries to the log")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	flag.Parse()

	app.ApplyEnv(&cfg)
	if configPath != "" {
		fc, err := app.LoadFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("load config")
		}
		fc.Apply(&cfg)
	}

	if cfg.Verbose || cfg.Settings.DebugMode {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	in, err := readInput(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("read input")
	}

	builder := pattern.NewBuilder(pattern.NewCache(0))
	registry := sites.NewRegistry()
	lib := textpattern.NewLibrary(builder)
	if err := registry.Register(sites.Amazon(lib)); err != nil {
		log.Fatal().Err(err).Msg("register amazon handler")
	}
	if err := registry.Register(sites.WooCommerce()); err != nil {
		log.Fatal().Err(err).Msg("register woocommerce handler")
	}

	p := pipeline.New(registry, builder)
	res := p.Extract(in, cfg.Settings)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Fatal().Err(err).Msg("encode result")
	}
	if res.Best == nil {
		// No price detected is an expected outcome, reported via exit code
		// for script use.
		os.Exit(1)
	}
}

// readInput assembles the pipeline input from flags: inline text, a file
// path, or stdin. File content that parses as HTML is handed over as a
// node; the raw text rides along for the text passes.
func readInput(cfg app.Config) (pipeline.Input, error) {
	in := pipeline.Input{Host: cfg.Host}
	if cfg.Text != "" {
		in.Text = cfg.Text
		return in, nil
	}
	if cfg.InputPath == "" {
		return in, fmt.Errorf("either -text or -input is required")
	}

	var raw []byte
	var err error
	if cfg.InputPath == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(cfg.InputPath)
	}
	if err != nil {
		return in, err
	}

	if looksLikeHTML(raw) {
		node, perr := html.Parse(bytes.NewReader(raw))
		if perr != nil {
			return in, perr
		}
		in.Node = node
		return in, nil
	}
	in.Text = string(raw)
	return in, nil
}

func looksLikeHTML(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '<':
			return true
		default:
			return false
		}
	}
	return false
}
