package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Defaults used whenever the parameter file is missing or a field in it
// is unusable.
const (
	DefaultInterval = "minute240"
	DefaultLookback = 24
)

// Params is the strategy parameter set, normally produced by the backtest
// optimizer and read at startup. It is an immutable value: load it once
// and pass it into whatever needs it, nothing reads it ambiently.
type Params struct {
	Interval         string           `json:"interval" yaml:"interval"`
	DonchianLookback int              `json:"donchian_lookback" yaml:"donchian_lookback"`
	Backtest         *BacktestSummary `json:"backtest_results,omitempty" yaml:"backtest_results,omitempty"`
}

// BacktestSummary carries the headline metrics of the run that selected
// the parameters. Informational only: it is shown in notifications and
// never influences live decisions.
type BacktestSummary struct {
	ProfitFactor     float64 `json:"PF" yaml:"PF"`
	CumulativeReturn float64 `json:"CumRet" yaml:"CumRet"`
	MaxDrawdown      float64 `json:"MDD" yaml:"MDD"`
	Sortino          float64 `json:"Sortino" yaml:"Sortino"`
	WinRate          float64 `json:"WinRate" yaml:"WinRate"`
	AvgTrade         float64 `json:"AvgTrade" yaml:"AvgTrade"`
	Trades           int     `json:"Trades" yaml:"Trades"`
}

// Default returns the fallback parameter set.
func Default() Params {
	return Params{
		Interval:         DefaultInterval,
		DonchianLookback: DefaultLookback,
	}
}

// LoadParams reads the parameter file, substituting documented defaults
// for anything missing or invalid. A bad file is a warning, never a fatal
// error and never a NaN quietly flowing downstream: each replaced field is
// logged individually.
func LoadParams(path string, log *zap.Logger) Params {
	if log == nil {
		log = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("parameter file unreadable, using defaults",
			zap.String("path", path),
			zap.String("interval", DefaultInterval),
			zap.Int("lookback", DefaultLookback),
			zap.Error(err),
		)
		return Default()
	}

	var p Params
	if err := unmarshal(path, data, &p); err != nil {
		log.Warn("parameter file malformed, using defaults",
			zap.String("path", path), zap.Error(err))
		return Default()
	}

	return sanitize(p, log)
}

// sanitize replaces invalid fields one by one so a single bad value does
// not throw away the rest of the file.
func sanitize(p Params, log *zap.Logger) Params {
	if p.Interval == "" || !validInterval(p.Interval) {
		log.Warn("invalid interval in parameter file, using default",
			zap.String("got", p.Interval), zap.String("default", DefaultInterval))
		p.Interval = DefaultInterval
	}
	if p.DonchianLookback < 2 {
		log.Warn("invalid donchian_lookback in parameter file, using default",
			zap.Int("got", p.DonchianLookback), zap.Int("default", DefaultLookback))
		p.DonchianLookback = DefaultLookback
	}
	return p
}

// validInterval accepts the pyupbit-style interval names the exchange
// client understands.
func validInterval(interval string) bool {
	switch interval {
	case "day", "week", "month":
		return true
	}
	if !strings.HasPrefix(interval, "minute") {
		return false
	}
	unit, err := strconv.Atoi(strings.TrimPrefix(interval, "minute"))
	return err == nil && unit > 0
}

// SaveParams writes the parameter file atomically: marshal to a temp file
// in the same directory, then rename over the destination, so a crash
// mid-write never leaves a half-written file behind.
func SaveParams(path string, p Params) error {
	data, err := json.MarshalIndent(p, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write params: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace params file: %w", err)
	}
	return nil
}

// unmarshal picks the codec by extension, defaulting to JSON; .yaml/.yml
// files are accepted the same way the rest of this project's config is.
func unmarshal(path string, data []byte, out any) error {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return yaml.Unmarshal(data, out)
	}
	return json.Unmarshal(data, out)
}
