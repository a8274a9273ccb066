package view

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jroimartin/gocui"
	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"

	"github.com/rosowskimik/wasm-gol/src/simulation"
	"github.com/rosowskimik/wasm-gol/src/universe"
)

type keyBindings struct {
	key      interface{}
	name     string
	descr    string
	handler  func(v *gocui.View) error
	viewName string
}

//ConsoleUI is the interactive terminal viewer
//it draws the raw cell buffer of the latest snapshot and translates keys and mouse clicks to simulation commands
type ConsoleUI struct {
	c simulation.Controller
	g *gocui.Gui
	k []keyBindings

	snap struct {
		simulation.Snapshot
		sync.Mutex
	}

	template string //last template settled with the 't' key

	liveFiller string
	deadFiller string
}

var (
	runningStateDescr = map[simulation.RunningState]string{
		simulation.RunningStateManual:   aurora.Colorize("waiting", aurora.BlueFg).String(),
		simulation.RunningStateStep:     "do the step",
		simulation.RunningStateRun:      aurora.Colorize("running", aurora.CyanFg).String(),
		simulation.RunningStateFinished: aurora.Colorize("finished", aurora.RedFg).String(),
	}
)

const (
	fieldView         = "battlefield"
	statusView        = "status"
	configurationView = "configuration"
	headerView        = "header"
	helpView          = "help"
)

func NewConsoleUI() (*ConsoleUI, error) {

	var err error
	t := ConsoleUI{
		liveFiller: aurora.Green("█").BgBrightGreen().String(),
		deadFiller: "░",
	}

	t.g, err = gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, errors.Wrap(err, "[NewConsoleUI] failed to init the terminal")
	}

	t.g.Mouse = true
	t.k = []keyBindings{
		{gocui.KeyCtrlC,
			"^C",
			"Exit",
			t.cmdQuit,
			""},
		{'n',
			"N",
			"Next step",
			t.cmdNextRound,
			""},
		{'r',
			"R",
			"Run",
			t.cmdRun,
			""},
		{'s',
			"S",
			"Stop",
			t.cmdStop,
			""},
		{'c',
			"C",
			"Clear",
			t.cmdClear,
			""},
		{'w',
			"W",
			"Settle with random",
			t.cmdSettleWithRandom,
			""},
		{'f',
			"F",
			"Fit to the view",
			t.cmdFit,
			""},
		{'t',
			"T",
			"Next template",
			t.cmdNextTemplate,
			""},
		{gocui.MouseLeft,
			"MOUSE",
			"Toggle the cell",
			t.cmdMouseClick,
			fieldView},
	}
	t.g.SetManagerFunc(t.layout)

	if err = t.initKeyBindings(t.k); err != nil {
		t.g.Close()
		return nil, err
	}

	return &t, nil
}

func (t *ConsoleUI) initKeyBindings(k []keyBindings) error {
	for _, kb := range k {
		h := kb.handler
		if err := t.g.SetKeybinding(kb.viewName, kb.key, gocui.ModNone, func(gui *gocui.Gui, view *gocui.View) error { return h(view) }); err != nil {
			return errors.Wrapf(err, "[initKeyBindings] key %v", kb.name)
		}
	}
	return nil
}

func (t *ConsoleUI) Register(c simulation.Controller) {
	t.c = c
	t.setSnapshot(c.Snapshot())
}

//Start runs the terminal main loop until ^C
func (t *ConsoleUI) Start() error {
	defer t.g.Close()
	if err := t.g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return errors.Wrap(err, "[ConsoleUI] main loop")
	}
	return nil
}

//Refresh is called by the simulation after every change
func (t *ConsoleUI) Refresh(snap simulation.Snapshot) {
	t.setSnapshot(snap)
	//it needs to call Update when calls from goroutine
	t.g.Update(func(g *gocui.Gui) error {
		t.renderField(g)
		t.renderConfiguration(g)
		t.renderStatus(g)
		return nil
	})
}

func (t *ConsoleUI) setSnapshot(snap simulation.Snapshot) {
	t.snap.Lock()
	t.snap.Snapshot = snap
	t.snap.Unlock()
}

func (t *ConsoleUI) snapshot() simulation.Snapshot {
	t.snap.Lock()
	defer t.snap.Unlock()
	return t.snap.Snapshot
}

func (t *ConsoleUI) renderField(g *gocui.Gui) {
	v, e := g.View(fieldView)
	if e != nil {
		return
	}
	//the entire field is redrawing at once now
	v.Clear()
	maxW, maxH := v.Size()
	_, _ = fmt.Fprint(v, renderCells(t.snapshot(), maxW, maxH, t.liveFiller, t.deadFiller))
}

//renderCells draws the row-major cell bytes into the maxW x maxH text area
func renderCells(snap simulation.Snapshot, maxW int, maxH int, liveFiller string, deadFiller string) string {
	width, height := int(snap.Width), int(snap.Height)
	crop := width > maxW || height > maxH

	var b bytes.Buffer
	for row := 0; row < height; row++ {
		//discard the data outside the view area
		if row >= maxH {
			break
		}
		//line feed char
		if row != 0 {
			b.WriteByte(10)
		}
		if crop && row == (maxH-1) {
			b.WriteString(aurora.Red("The field size is larger than the viewing area").BgBlack().String())
			break
		}
		line := snap.Cells[row*width : (row+1)*width]
		for column, cell := range line {
			if column >= maxW {
				break
			}
			if cell != 0 {
				b.WriteString(liveFiller)
			} else {
				b.WriteString(deadFiller)
			}
		}
	}
	return b.String()
}

func (t *ConsoleUI) renderStatus(g *gocui.Gui) {
	s := t.snapshot().Status
	if v, e := g.View(statusView); e == nil {
		v.Clear()
		_, _ = fmt.Fprintln(v, renderProp("Step", "%v", s.IterationNum))
		_, _ = fmt.Fprintln(v, renderProp("Live Cells", "%v", s.LiveCells))
		_, _ = fmt.Fprintln(v, renderProp("Avg Population", "%.1f", s.AveragePopulation))
		_, _ = fmt.Fprintln(v, renderProp("Evaluation time", "%v", s.IterationTime.Round(time.Microsecond)))
		_, _ = fmt.Fprintln(v, renderProp("Gen/sec", "%.0f", s.GenerationsPerSecond))
		_, _ = fmt.Fprintln(v, renderProp("Mode", "%v", runningStateDescr[s.RunningMode]))
	}
}

func (t *ConsoleUI) renderConfiguration(g *gocui.Gui) {
	if t.c == nil {
		return
	}
	c := t.c.Options()
	if v, e := g.View(configurationView); e == nil {
		v.Clear()
		_, _ = fmt.Fprintln(v, renderProp("Dimension", "%v x %v", c.Width, c.Height))
		_, _ = fmt.Fprintln(v, renderProp("Interval", "%v", c.Interval))
		_, _ = fmt.Fprintln(v, renderProp("Iterations", "%v steps", c.MaxSteps))
	}
}

func renderProp(name string, valueformat string, values ...interface{}) string {
	return fmt.Sprintf(" "+aurora.Colorize(name, aurora.GreenFg).String()+": "+valueformat, values...)
}

func (t *ConsoleUI) layout(g *gocui.Gui) error {

	maxX, maxY := g.Size()
	leftColumnWidth := 28
	minWindowHeight := 20

	if maxY < minWindowHeight {
		if _, err := t.headerLayout(g, maxY, "Terminal height too small"); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
		}
		_ = g.DeleteView(configurationView)
		_ = g.DeleteView(statusView)
		_ = g.DeleteView(fieldView)
		return nil
	}
	if _, err := t.headerLayout(g, 3, "This is \"The Life\" game simulation"); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
	}

	if v, err := g.SetView(configurationView, 0, 3, leftColumnWidth, 3+(maxY-5-3)/2); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Title = "Configuration"
		v.Frame = true
		t.renderConfiguration(g)
	}

	if v, err := g.SetView(statusView, 0, 3+(maxY-5-3)/2+1, leftColumnWidth, maxY-5); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Title = "Status"
		v.Frame = true
		t.renderStatus(g)
	}

	if v, err := g.SetView(fieldView, leftColumnWidth+1, 3, maxX-1, maxY-5); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Title = "Battle Field"
		v.Frame = true
	}
	t.renderField(g)

	if v, err := g.SetView(helpView, -1, maxY-5, maxX, maxY-3); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Frame = false
		b := bytes.Buffer{}
		b.WriteString("KEYBINDINGS: ")
		for i, k := range t.k {
			if i != 0 {
				b.WriteString(", ")
			}
			b.WriteString(aurora.Green(k.name).String())
			b.WriteString(": ")
			b.WriteString(k.descr)
		}
		_, _ = fmt.Fprintln(v, b.String())
	}

	return nil
}

func (t *ConsoleUI) headerLayout(g *gocui.Gui, height int, text string) (v *gocui.View, err error) {
	maxX, _ := g.Size()
	if v, err = g.SetView(headerView, -1, -1, maxX+1, height); err != nil {
		if err == gocui.ErrUnknownView && v != nil {
			v.Frame = false
			v.BgColor = gocui.ColorCyan
			v.FgColor = gocui.ColorBlack
		}
	}
	if v != nil {
		v.Clear()
		indent := 0
		if maxX > len(text) {
			indent = (maxX - len(text)) / 2
		}
		_, _ = fmt.Fprintln(v, strings.Repeat("\n", height/2+1)+strings.Repeat(" ", indent)+text)
	}
	return
}

func (t *ConsoleUI) cmdQuit(_ *gocui.View) error {
	return gocui.ErrQuit
}

func (t *ConsoleUI) cmdNextRound(_ *gocui.View) error {
	t.c.Step()
	return nil
}

func (t *ConsoleUI) cmdRun(_ *gocui.View) error {
	t.c.Run()
	return nil
}

func (t *ConsoleUI) cmdStop(_ *gocui.View) error {
	t.c.Stop()
	return nil
}

func (t *ConsoleUI) cmdClear(_ *gocui.View) error {
	t.c.Clear()
	return nil
}

func (t *ConsoleUI) cmdSettleWithRandom(_ *gocui.View) error {
	t.c.Randomize()
	return nil
}

//cmdFit resizes the universe to the size of the field view, the cells are killed
func (t *ConsoleUI) cmdFit(_ *gocui.View) error {
	v, err := t.g.View(fieldView)
	if err != nil {
		return nil
	}
	w, h := v.Size()
	if w <= 0 || h <= 0 {
		return nil
	}
	//the new field comes back through Refresh
	_ = t.c.Resize(uint32(w), uint32(h))
	return nil
}

//cmdNextTemplate clears the field and settles the next built-in template
func (t *ConsoleUI) cmdNextTemplate(_ *gocui.View) error {
	t.template = nextTemplate(universe.TemplateNames(), t.template)
	t.c.Clear()
	return t.c.Settle(t.template)
}

//nextTemplate returns the name following current, the first one when current is unknown
func nextTemplate(names []string, current string) string {
	for i, name := range names {
		if name == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

func (t *ConsoleUI) cmdMouseClick(v *gocui.View) error {
	cx, cy := v.Cursor()
	if column, row, ok := cellAt(t.snapshot(), cx, cy); ok {
		t.c.Toggle(column, row)
	}
	return nil
}

//cellAt validates the view position against the current grid
func cellAt(snap simulation.Snapshot, x int, y int) (column int, row int, ok bool) {
	if x < 0 || y < 0 || x >= int(snap.Width) || y >= int(snap.Height) {
		return 0, 0, false
	}
	return x, y, true
}
