package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/rosowskimik/wasm-gol/src/simulation"
	"github.com/rosowskimik/wasm-gol/src/universe"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds the configuration of the simulation and the way it is shown
type Config struct {
	Width           uint32   `json:"width"`
	Height          uint32   `json:"height"`
	Interval        Duration `json:"interval"`
	MaxSteps        int      `json:"max_steps"`
	MaxSkippedTicks int      `json:"max_skipped_ticks"`
	Template        string   `json:"template"`
	Random          bool     `json:"random"`
	Interactive     bool     `json:"interactive"`
}

// Duration accepts both "150ms" and integer nanoseconds in JSON
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return errors.Wrapf(err, "[Duration] invalid duration: %q", s)
		}
		*d = Duration(v)
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return errors.Wrapf(err, "[Duration] invalid duration: %s", b)
	}
	*d = Duration(n)
	return nil
}

// Default returns the defaults of the simulation
func Default() Config {
	o := simulation.DefaultOptions
	return Config{
		Width:           o.Width,
		Height:          o.Height,
		Interval:        Duration(o.Interval),
		MaxSteps:        o.MaxSteps,
		MaxSkippedTicks: o.MaxSkippedTicks,
		Template:        o.Template,
	}
}

// Load loads configuration from JSON file, the fields missing in the file keep the defaults
func Load(filename string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, errors.Wrapf(err, "[Load] failed to read file: %+v", filename)
	}

	if err = json.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, "[Load] failed to unmarshal data from file: %+v", filename)
	}

	return config, nil
}

// Validate checks the configuration before the simulation is created
func (c Config) Validate() error {
	if c.Width == 0 || c.Height == 0 {
		return errors.Wrapf(ErrInvalidConfig, "dimension %vx%v", c.Width, c.Height)
	}
	if c.Template != "" && !c.Random {
		if _, ok := universe.TemplateByName(c.Template); !ok {
			return errors.Wrapf(ErrInvalidConfig, "unknown template %q", c.Template)
		}
	}
	if err := c.Options().Validate(); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return nil
}

// Options converts the configuration to the simulation options
func (c Config) Options() simulation.Options {
	return simulation.Options{
		Width:           c.Width,
		Height:          c.Height,
		Interval:        time.Duration(c.Interval),
		MaxSteps:        c.MaxSteps,
		MaxSkippedTicks: c.MaxSkippedTicks,
		Template:        c.Template,
		Random:          c.Random,
	}
}
