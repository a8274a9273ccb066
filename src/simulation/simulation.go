package simulation

import (
	"crypto/md5"
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/rosowskimik/wasm-gol/src/universe"
)

/*
	Simulation is the host of one universe.
	The universe itself is not synchronized, so every access goes through the main loop goroutine:
	commands are closures sent to controlCh and executed one by one.
	Viewers get a Snapshot - a copy of the cell buffer - and never touch the universe directly.
*/

//Status represents the status of the Simulation at concrete moment
type Status struct {
	IterationNum         int
	RunningMode          RunningState
	LiveCells            int
	IterationTime        time.Duration
	AveragePopulation    float64
	GenerationsPerSecond float64 //inverse of the last IterationTime
	Stagnant             bool    //the last generation repeats one of the two previous ones
}

//The simulation running status at the concrete moment
type RunningState int

const (
	RunningStateManual RunningState = iota
	RunningStateStep
	RunningStateRun
	RunningStateFinished
)

func (rs RunningState) String() string {
	switch rs {
	case RunningStateManual:
		return "waiting"
	case RunningStateStep:
		return "do the step"
	case RunningStateRun:
		return "running"
	case RunningStateFinished:
		return "finished"
	}
	return "unknown"
}

//Snapshot is a copy of the universe taken between two commands
//Cells is row-major, one byte per cell: 0 - dead, 1 - alive
type Snapshot struct {
	Width  uint32
	Height uint32
	Cells  []byte
	Status Status
}

//Alive reports whether the cell at column, row is alive
func (s Snapshot) Alive(column int, row int) bool {
	return s.Cells[row*int(s.Width)+column] == byte(universe.Alive)
}

//Viewer is the interface to any Viewer - the object who can display simulation data or control the simulation
type Viewer interface {
	Refresh(snap Snapshot)
	Register(c Controller)
	Start() error
}

var ErrUnknownTemplate = errors.New("simulation: unknown template")

//how many fingerprints are kept to detect still lifes and period 2 oscillators
const historySize = 2

type Simulation struct {
	options Options
	state   struct {
		Status
		runID int //the run loop exits when this changes
		sync.Mutex
	}
	u         *universe.Universe //owned by the main loop
	stats     Stats
	history   [][md5.Size]byte
	stateCh   chan Status
	views     []Viewer
	controlCh chan func()
	closeCh   chan struct{}
	closeOnce sync.Once
}

//New creates the Simulation and settles the universe according to the options
//stateCh can be nil, otherwise every switch of the running state is written to it
func New(o Options, stateCh chan Status) (*Simulation, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	u, err := universe.New(o.Width, o.Height)
	if err != nil {
		return nil, errors.Wrap(err, "[simulation.New]")
	}

	s := &Simulation{
		options:   o,
		u:         u,
		stats:     NewStats(),
		stateCh:   stateCh,
		controlCh: make(chan func(), 1),
		closeCh:   make(chan struct{}),
	}

	if o.Random {
		u.FillRandom()
	} else if o.Template != "" {
		t, ok := universe.TemplateByName(o.Template)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownTemplate, "%q", o.Template)
		}
		u.SettleTemplate(t, 0, 0)
	}
	s.state.LiveCells = u.LiveCells()

	go s.mainLoop()
	return s, nil
}

//RegisterViewer registers the viewer - the simulation will call the viewer when the state is changed
func (s *Simulation) RegisterViewer(v Viewer) {
	s.execWait(func() {
		s.views = append(s.views, v)
	})
	v.Register(s)
}

//StateCh returns the channel with the simulation's status updates
func (s *Simulation) StateCh() chan Status {
	return s.stateCh
}

//Status returns current simulation status represented by Status struct
func (s *Simulation) Status() Status {
	s.state.Lock()
	defer s.state.Unlock()
	return s.state.Status
}

//Options returns current simulation configuration, Width and Height follow Resize
func (s *Simulation) Options() Options {
	s.state.Lock()
	defer s.state.Unlock()
	return s.options
}

//Snapshot returns the copy of the current generation
//the zero Snapshot is returned after Close
func (s *Simulation) Snapshot() (snap Snapshot) {
	s.execWait(func() {
		snap = s.snapshot()
	})
	return
}

//Run starts the simulation, returns immediately
//the simulation stops on Stop() or when the finishing conditions are reached
func (s *Simulation) Run() {
	s.exec(s.run)
}

//Stop stops the simulation, returns immediately
func (s *Simulation) Stop() {
	s.exec(s.stop)
}

//Step does one generation, returns immediately
//the Status struct will be written to the stateCh on start and on finish
func (s *Simulation) Step() {
	s.exec(s.step)
}

//Clear kills all cells and resets all counters, returns immediately
func (s *Simulation) Clear() {
	s.exec(s.clear)
}

//Randomize settles the universe with random data and resets all counters, returns immediately
func (s *Simulation) Randomize() {
	s.exec(s.randomize)
}

//Toggle inverses the cell state at column, row, returns immediately
//coordinates outside the current grid are ignored
func (s *Simulation) Toggle(column int, row int) {
	s.exec(func() {
		s.toggle(column, row)
	})
}

//Settle places the built-in template at the top left corner, returns immediately
func (s *Simulation) Settle(name string) error {
	t, ok := universe.TemplateByName(name)
	if !ok {
		return errors.Wrapf(ErrUnknownTemplate, "%q", name)
	}
	s.exec(func() {
		s.settle(t)
	})
	return nil
}

//Resize replaces the grid with the empty one of the new size and waits for the result
func (s *Simulation) Resize(width uint32, height uint32) (err error) {
	s.execWait(func() {
		err = s.resize(width, height)
	})
	return
}

//Close stops the main loop, returns immediately
func (s *Simulation) Close() {
	s.closeOnce.Do(func() {
		close(s.closeCh)
	})
}

//exec sends the command to the main loop
func (s *Simulation) exec(cmd func()) bool {
	select {
	case <-s.closeCh:
		return false
	default:
	}
	select {
	case s.controlCh <- cmd:
		return true
	case <-s.closeCh:
		return false
	}
}

//execWait sends the command to the main loop and waits until it is done
//must not be called from the main loop itself
func (s *Simulation) execWait(cmd func()) bool {
	done := make(chan struct{})
	if !s.exec(func() {
		cmd()
		close(done)
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-s.closeCh:
		return false
	}
}

//mainLoop - the main cycle, should start as a goroutine
//waits for command and executes
func (s *Simulation) mainLoop() {
	for {
		select {
		case cmd := <-s.controlCh:
			cmd()
		case <-s.closeCh:
			return
		}
	}
}

//switchRunningState switch the state of the simulation to RunningState
//also writes the new state to the stateCh to signal upper control software
func (s *Simulation) switchRunningState(to RunningState) {
	s.state.Lock()
	s.state.RunningMode = to
	st := s.state.Status
	s.state.Unlock()
	if s.stateCh != nil {
		select {
		case s.stateCh <- st:
		case <-s.closeCh:
		}
	}
}

//run starts the running cycle in its own goroutine
func (s *Simulation) run() {
	s.state.Lock()
	if s.state.RunningMode == RunningStateRun {
		s.state.Unlock()
		return
	}
	s.state.runID++
	id := s.state.runID
	s.state.Unlock()

	s.switchRunningState(RunningStateRun)
	go s.runLoop(id)
}

//runLoop asks the main loop for the steps until the mode is changed or the finishing conditions are reached
func (s *Simulation) runLoop(id int) {
	skipped := 0
	for {
		s.state.Lock()
		mode, current := s.state.RunningMode, s.state.runID
		s.state.Unlock()
		if current != id || (mode != RunningStateRun && mode != RunningStateStep) {
			return
		}
		if skipped > s.options.MaxSkippedTicks {
			log.Printf("simulation: %v ticks skipped in a row, finishing", skipped)
			s.exec(func() {
				s.switchRunningState(RunningStateFinished)
			})
			return
		}
		//skip the tick if the universe is still in the calculation mode
		if mode != RunningStateStep {
			skipped = 0
			if !s.execWait(s.step) {
				return
			}
		} else {
			skipped++
		}
		if s.options.Interval > 0 {
			select {
			case <-time.After(s.options.Interval):
			case <-s.closeCh:
				return
			}
		}
	}
}

//stop stops the running cycle
func (s *Simulation) stop() {
	if s.Status().RunningMode == RunningStateRun {
		s.switchRunningState(RunningStateManual)
	}
}

//step calculates the next generation for the entire universe
func (s *Simulation) step() {
	rm := s.Status().RunningMode
	if rm != RunningStateRun {
		rm = RunningStateManual
	}
	s.switchRunningState(RunningStateStep)

	if len(s.history) == 0 {
		s.remember(s.fingerprint())
	}
	start := time.Now()
	s.u.Tick()
	elapsed := time.Since(start)
	live := s.u.LiveCells()
	fp := s.fingerprint()
	stagnant := s.seen(fp)
	s.remember(fp)

	s.state.Lock()
	s.state.IterationNum++
	iter := s.state.IterationNum
	s.stats.Update(iter, live, elapsed)
	s.state.LiveCells = live
	s.state.IterationTime = elapsed
	s.state.AveragePopulation = s.stats.AveragePopulation
	s.state.GenerationsPerSecond = s.stats.GenerationsPerSecond
	s.state.Stagnant = stagnant
	maxSteps := s.options.MaxSteps
	s.state.Unlock()

	if live == 0 || stagnant || (maxSteps != 0 && iter >= maxSteps) {
		s.switchRunningState(RunningStateFinished)
	} else {
		s.switchRunningState(rm)
	}
	s.refreshView()
}

//clear kills all cells, reset all counters
func (s *Simulation) clear() {
	s.u.Reset()
	s.resetCounters()
	s.switchRunningState(RunningStateManual)
	s.refreshView()
}

func (s *Simulation) randomize() {
	s.u.FillRandom()
	s.resetCounters()
	s.switchRunningState(RunningStateManual)
	s.refreshView()
}

func (s *Simulation) toggle(column int, row int) {
	//compared as int, a conversion first would wrap large values into the grid
	if column < 0 || row < 0 || column >= int(s.u.Width()) || row >= int(s.u.Height()) {
		return
	}
	s.u.ToggleCell(uint32(column), uint32(row))
	s.cellsChanged()
}

func (s *Simulation) settle(t universe.Template) {
	s.u.SettleTemplate(t, 0, 0)
	s.cellsChanged()
}

func (s *Simulation) resize(width uint32, height uint32) error {
	if err := s.u.Resize(width, height); err != nil {
		return err
	}
	s.state.Lock()
	s.options.Width = width
	s.options.Height = height
	s.state.Unlock()
	s.resetCounters()
	s.switchRunningState(RunningStateManual)
	s.refreshView()
	return nil
}

//resetCounters starts the counting from scratch and stops the running cycle
func (s *Simulation) resetCounters() {
	s.history = nil
	s.stats = NewStats()
	s.state.Lock()
	s.state.IterationNum = 0
	s.state.IterationTime = 0
	s.state.AveragePopulation = 0
	s.state.GenerationsPerSecond = 0
	s.state.Stagnant = false
	s.state.LiveCells = s.u.LiveCells()
	s.state.runID++
	s.state.Unlock()
}

//cellsChanged is called after the cells were edited between the generations
func (s *Simulation) cellsChanged() {
	s.history = nil
	s.state.Lock()
	s.state.LiveCells = s.u.LiveCells()
	s.state.Stagnant = false
	s.state.Unlock()
	s.refreshView()
}

func (s *Simulation) fingerprint() [md5.Size]byte {
	return md5.Sum(s.u.Bytes())
}

func (s *Simulation) seen(fp [md5.Size]byte) bool {
	for _, h := range s.history {
		if h == fp {
			return true
		}
	}
	return false
}

func (s *Simulation) remember(fp [md5.Size]byte) {
	s.history = append(s.history, fp)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
}

func (s *Simulation) snapshot() Snapshot {
	return Snapshot{
		Width:  s.u.Width(),
		Height: s.u.Height(),
		Cells:  append([]byte(nil), s.u.Bytes()...),
		Status: s.Status(),
	}
}

//refreshView calls Refresh event for all registered views
func (s *Simulation) refreshView() {
	if len(s.views) == 0 {
		return
	}
	snap := s.snapshot()
	for _, v := range s.views {
		v.Refresh(snap)
	}
}
