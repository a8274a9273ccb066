package view

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/logrusorgru/aurora"

	"github.com/rosowskimik/wasm-gol/src/simulation"
)

//ConsoleOut prints the progress of a non-interactive simulation
type ConsoleOut struct {
	w         io.Writer
	c         simulation.Controller
	startTime time.Time
	done      chan struct{}
	finished  bool
	every     int
}

//NewConsoleOut creates the printer which reports every n-th iteration
func NewConsoleOut(w io.Writer, every int) *ConsoleOut {
	if every <= 0 {
		every = 10
	}
	return &ConsoleOut{w: w, every: every, done: make(chan struct{})}
}

//Refresh is called on the simulation goroutine, one call at a time
func (c *ConsoleOut) Refresh(snap simulation.Snapshot) {
	st := snap.Status
	if st.RunningMode == simulation.RunningStateFinished {
		if c.finished {
			return
		}
		c.finished = true
		totalTime := time.Since(c.startTime).Round(time.Millisecond)
		resultData := map[string]interface{}{
			"Last iteration":     st.IterationNum,
			"Total time":         totalTime,
			"Live cells":         st.LiveCells,
			"Average population": fmt.Sprintf("%.1f", st.AveragePopulation),
			"Stagnant":           st.Stagnant,
		}
		fmt.Fprintln(c.w, aurora.Red("\nFinished:"))
		c.printHashData(resultData)
		close(c.done)
	} else if st.RunningMode == simulation.RunningStateRun {
		if st.IterationNum%c.every == 0 {
			fmt.Fprintf(c.w, "  Iterations done: %v\n", st.IterationNum)
		}
	}
}

func (c *ConsoleOut) Register(ctl simulation.Controller) {
	c.c = ctl
	o := c.c.Options()
	fmt.Fprintln(c.w, aurora.Green("Running configuration:"))
	c.printHashData(map[string]interface{}{
		"Dimension":      fmt.Sprintf("%v x %v", o.Width, o.Height),
		"Interval":       o.Interval,
		"Max iterations": fmt.Sprintf("%v steps", o.MaxSteps),
		"Template":       o.Template,
		"Random":         o.Random,
	})
}

//Start starts the simulation and returns immediately, Done is closed when it finishes
func (c *ConsoleOut) Start() error {
	c.startTime = time.Now()
	fmt.Fprintln(c.w, "\nSimulation started...")
	c.c.Run()
	return nil
}

//Done is closed when the simulation reports it is finished
func (c *ConsoleOut) Done() <-chan struct{} {
	return c.done
}

func (c *ConsoleOut) printHashData(d map[string]interface{}) {
	propNames := make([]string, 0, len(d))
	for k := range d {
		propNames = append(propNames, k)
	}
	sort.Strings(propNames)
	for _, propName := range propNames {
		fmt.Fprintf(c.w, "  %s: %v\n", propName, d[propName])
	}
}
