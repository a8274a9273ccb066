package simulation

import (
	"time"

	"github.com/pkg/errors"
)

//Options represents the Simulation's configurable options
type Options struct {
	Width           uint32
	Height          uint32
	Interval        time.Duration
	MaxSteps        int
	MaxSkippedTicks int
	Template        string //name of the built-in template to settle on start
	Random          bool   //settle with random data on start, wins over Template
}

//default options
const (
	DefSimulationInterval = time.Millisecond * 100
	DefMaxSteps           = 1000
	DefWidth              = 40
	DefHeight             = 15
	DefMaxSkippedTicks    = 5
	DefTemplate           = "testSample"
)

var DefaultOptions = Options{
	Width:           DefWidth,
	Height:          DefHeight,
	Interval:        DefSimulationInterval,
	MaxSteps:        DefMaxSteps,
	MaxSkippedTicks: DefMaxSkippedTicks,
	Template:        DefTemplate,
}

var ErrInvalidOptions = errors.New("simulation: invalid options")

//Validate checks the limits, the grid dimensions are validated by the universe itself
func (o Options) Validate() error {
	if o.Interval < 0 {
		return errors.Wrapf(ErrInvalidOptions, "negative interval %v", o.Interval)
	}
	if o.MaxSteps < 0 {
		return errors.Wrapf(ErrInvalidOptions, "negative max steps %v", o.MaxSteps)
	}
	if o.MaxSkippedTicks < 0 {
		return errors.Wrapf(ErrInvalidOptions, "negative max skipped ticks %v", o.MaxSkippedTicks)
	}
	return nil
}
