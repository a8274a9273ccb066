package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/integrii/flaggy"
	"golang.org/x/sync/errgroup"

	"github.com/rosowskimik/wasm-gol/src/config"
	"github.com/rosowskimik/wasm-gol/src/simulation"
	"github.com/rosowskimik/wasm-gol/src/universe"
	"github.com/rosowskimik/wasm-gol/src/view"
)

func main() {
	c := initConfig()

	if c.Interactive {
		//the terminal belongs to the UI
		log.SetOutput(io.Discard)
		if err := runInteractive(c); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := runBatch(c); err != nil {
		log.Fatalf("%+v", err)
	}
}

func runInteractive(c config.Config) error {
	s, err := simulation.New(c.Options(), nil)
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := view.NewConsoleUI()
	if err != nil {
		return err
	}
	s.RegisterViewer(v)
	return v.Start()
}

func runBatch(c config.Config) error {
	stateCh := make(chan simulation.Status, 10) //the buffered channel to getting the simulation status
	s, err := simulation.New(c.Options(), stateCh)
	if err != nil {
		return err
	}
	defer s.Close()

	out := view.NewConsoleOut(os.Stdout, 10)
	s.RegisterViewer(out)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	startTime := time.Now()
	g.Go(out.Start)
	//the status channel has to be drained, the simulation blocks on it otherwise
	g.Go(func() error {
		for {
			select {
			case <-stateCh:
			case <-out.Done():
				return nil
			case <-ctx.Done():
				s.Stop()
				return nil
			}
		}
	})
	if err := g.Wait(); err != nil {
		return err
	}

	st := s.Status()
	log.Printf("simulation ended: %v iterations, %v live cells, mode %v, %v",
		st.IterationNum, st.LiveCells, st.RunningMode, time.Since(startTime).Round(time.Millisecond))
	return nil
}

//initConfig reads the configuration file and applies the flags on top of it
func initConfig() config.Config {
	var (
		configFile string
		c          = config.Default()
	)

	//the config file has to be known before the other flags are applied
	configFile = configFileArg(os.Args[1:])
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			log.Fatalf("%+v", err)
		}
		c = loaded
	}

	flaggy.SetName("gol")
	flaggy.SetDescription("Conway's \"The Life\" on a toroidal field")
	flaggy.DefaultParser.ShowHelpOnUnexpected = true
	flaggy.String(&configFile, "c", "config", "JSON configuration file, the flags override its values")
	flaggy.UInt32(&c.Width, "x", "width", "Width of a simulation field")
	flaggy.UInt32(&c.Height, "y", "height", "Height of a simulation field")
	flaggy.Duration((*time.Duration)(&c.Interval), "i", "interval", "Simulation speed (interval between the steps) in format the number with 'ms' suffix, for example 150ms")
	flaggy.Int(&c.MaxSteps, "s", "maxSteps", "Limit the simulation to maxSteps, 0 - no limit")
	flaggy.Bool(&c.Interactive, "n", "interactive", "Start interactive mode")
	flaggy.Bool(&c.Random, "r", "random", "Settle with random data")
	flaggy.String(&c.Template, "t", "template", "Template to settle ["+strings.Join(universe.TemplateNames(), "|")+"]")

	flaggy.Parse()

	if err := c.Validate(); err != nil {
		flaggy.ShowHelpAndExit(err.Error())
	}

	return c
}

//configFileArg finds the config file in the arguments, the last one wins
func configFileArg(args []string) string {
	var configFile string
	for i, arg := range args {
		switch {
		case (arg == "-c" || arg == "--config") && i+1 < len(args):
			configFile = args[i+1]
		case strings.HasPrefix(arg, "--config="):
			configFile = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "-c="):
			configFile = strings.TrimPrefix(arg, "-c=")
		}
	}
	return configFile
}
