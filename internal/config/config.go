// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"

	"github.com/wneessen/routebridge/internal/geo"
)

const configEnv = "ROUTEBRIDGE"

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Dataset struct {
		Path string `fig:"path"`
		// Maximum distance in meters between a query point and the road network
		SnapRadius float64 `fig:"snap_radius" default:"500"`
		// Speed in km/h for roads without a speed limit
		DefaultSpeed float64 `fig:"default_speed" default:"50"`
	} `fig:"dataset"`

	Query struct {
		Timeout time.Duration `fig:"timeout" default:"5s"`
	} `fig:"query"`

	Server struct {
		Listen string `fig:"listen" default:"127.0.0.1:8088"`
	} `fig:"server"`

	Probe struct {
		// A zero interval disables the probe
		Interval time.Duration `fig:"interval" default:"5m"`
		Start    string        `fig:"start"`
		End      string        `fig:"end"`
	} `fig:"probe"`

	GPSD struct {
		Host    string        `fig:"host" default:"localhost"`
		Port    string        `fig:"port" default:"2947"`
		Timeout time.Duration `fig:"timeout" default:"10s"`
	} `fig:"gpsd"`

	Batch struct {
		// Zero selects the number of CPUs
		Workers int `fig:"workers" default:"0"`
	} `fig:"batch"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	if c.Dataset.SnapRadius <= 0 {
		return fmt.Errorf("invalid snap radius: %g", c.Dataset.SnapRadius)
	}
	if c.Dataset.DefaultSpeed <= 0 {
		return fmt.Errorf("invalid default speed: %g", c.Dataset.DefaultSpeed)
	}
	if c.Query.Timeout <= 0 {
		return fmt.Errorf("invalid query timeout: %s", c.Query.Timeout)
	}
	if c.Probe.Interval < 0 {
		return fmt.Errorf("invalid probe interval: %s", c.Probe.Interval)
	}
	if (c.Probe.Start == "") != (c.Probe.End == "") {
		return fmt.Errorf("probe start and end must be set together")
	}
	for _, point := range []string{c.Probe.Start, c.Probe.End} {
		if point == "" {
			continue
		}
		coord, err := geo.Parse(point)
		if err != nil {
			return fmt.Errorf("invalid probe coordinate: %w", err)
		}
		if err = coord.Validate(); err != nil {
			return fmt.Errorf("invalid probe coordinate: %w", err)
		}
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("invalid number of batch workers: %d", c.Batch.Workers)
	}

	return nil
}

// ProbePoints returns the parsed probe coordinates. It reports false if no probe route is
// configured.
func (c *Config) ProbePoints() (geo.Coordinate, geo.Coordinate, bool) {
	if c.Probe.Start == "" || c.Probe.End == "" {
		return geo.Coordinate{}, geo.Coordinate{}, false
	}
	start, err := geo.Parse(c.Probe.Start)
	if err != nil {
		return geo.Coordinate{}, geo.Coordinate{}, false
	}
	end, err := geo.Parse(c.Probe.End)
	if err != nil {
		return geo.Coordinate{}, geo.Coordinate{}, false
	}
	return start, end, true
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
