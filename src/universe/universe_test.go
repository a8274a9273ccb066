package universe

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
)

func newTestUniverse(t testing.TB, width uint32, height uint32) *Universe {
	t.Helper()
	u, err := NewWithSource(width, height, rand.NewSource(42))
	if err != nil {
		t.Fatalf("NewWithSource(%v, %v): %v", width, height, err)
	}
	return u
}

//aliveAt returns the [column,row] pairs of all alive cells in row-major order
func aliveAt(u *Universe) [][]int {
	var vc [][]int
	for i, c := range u.Cells() {
		if c == Alive {
			vc = append(vc, []int{i % int(u.Width()), i / int(u.Width())})
		}
	}
	return vc
}

func assertAllDead(t *testing.T, u *Universe, length int) {
	t.Helper()
	cells := u.Cells()
	if len(cells) != length {
		t.Fatalf("len(cells) = %v, want %v", len(cells), length)
	}
	for i, c := range cells {
		if c != Dead {
			t.Fatalf("cell %v is %v, want dead", i, c)
		}
	}
}

func sameCells(a []Cell, b []Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew(t *testing.T) {
	u := newTestUniverse(t, 7, 3)
	if u.Width() != 7 || u.Height() != 3 {
		t.Fatalf("dimension is %vx%v, want 7x3", u.Width(), u.Height())
	}
	assertAllDead(t, u, 21)
	if len(u.scratch) != 21 {
		t.Fatalf("len(scratch) = %v, want 21", len(u.scratch))
	}
}

func TestNew_InvalidDimensions(t *testing.T) {
	cases := []struct {
		name          string
		width, height uint32
		want          error
	}{
		{"zero width", 0, 5, ErrZeroDimension},
		{"zero height", 5, 0, ErrZeroDimension},
		{"zero both", 0, 0, ErrZeroDimension},
		{"too large", 1 << 16, 1 << 16, ErrTooLarge},
		{"overflow", 1<<32 - 1, 1<<32 - 1, ErrTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := New(tc.width, tc.height)
			if u != nil {
				t.Fatalf("got universe, want nil")
			}
			if errors.Cause(err) != tc.want {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestResize(t *testing.T) {
	u := newTestUniverse(t, 4, 4)
	u.FillRandom()
	u.Set(0, 0, Alive)

	if err := u.Resize(6, 3); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if u.Width() != 6 || u.Height() != 3 {
		t.Fatalf("dimension is %vx%v, want 6x3", u.Width(), u.Height())
	}
	assertAllDead(t, u, 18)
	if len(u.scratch) != 18 {
		t.Fatalf("len(scratch) = %v, want 18", len(u.scratch))
	}

	//growing after shrinking
	if err := u.Resize(10, 10); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	assertAllDead(t, u, 100)
	if len(u.scratch) != 100 {
		t.Fatalf("len(scratch) = %v, want 100", len(u.scratch))
	}
}

func TestResize_RejectedKeepsState(t *testing.T) {
	u := newTestUniverse(t, 3, 3)
	u.Set(1, 1, Alive)

	err := u.Resize(0, 3)
	if errors.Cause(err) != ErrZeroDimension {
		t.Fatalf("err = %v, want %v", err, ErrZeroDimension)
	}
	if u.Width() != 3 || u.Height() != 3 || u.Get(1, 1) != Alive {
		t.Fatalf("universe changed on rejected resize")
	}
}

func TestGetIndex(t *testing.T) {
	u := newTestUniverse(t, 5, 4)
	cases := []struct {
		column, row uint32
		want        int
	}{
		{0, 0, 0},
		{4, 0, 4},
		{0, 1, 5},
		{2, 3, 17},
		{4, 3, 19},
	}
	for _, tc := range cases {
		if got := u.GetIndex(tc.column, tc.row); got != tc.want {
			t.Errorf("GetIndex(%v, %v) = %v, want %v", tc.column, tc.row, got, tc.want)
		}
	}
}

func TestOutOfRangePanics(t *testing.T) {
	u := newTestUniverse(t, 5, 4)
	calls := map[string]func(){
		"GetIndex":           func() { u.GetIndex(5, 0) },
		"ToggleCell":         func() { u.ToggleCell(0, 4) },
		"Get":                func() { u.Get(10, 10) },
		"Set":                func() { u.Set(5, 3, Alive) },
		"LiveNeighbourCount": func() { u.LiveNeighbourCount(0, 4) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("%v did not panic", name)
				}
			}()
			call()
		})
	}
}

func TestToggleCell(t *testing.T) {
	u := newTestUniverse(t, 5, 5)
	u.FillRandom()
	before := append([]Cell(nil), u.Cells()...)

	for row := uint32(0); row < u.Height(); row++ {
		for column := uint32(0); column < u.Width(); column++ {
			was := u.Get(column, row)
			u.ToggleCell(column, row)
			if u.Get(column, row) == was {
				t.Fatalf("(%v, %v) not toggled", column, row)
			}
			u.ToggleCell(column, row)
		}
	}
	if !sameCells(before, u.Cells()) {
		t.Fatalf("double toggle changed the universe")
	}
}

func TestReset(t *testing.T) {
	u := newTestUniverse(t, 8, 6)
	u.FillRandom()
	u.Reset()
	assertAllDead(t, u, 48)
	u.Reset()
	assertAllDead(t, u, 48)
}

func TestFillRandom(t *testing.T) {
	u := newTestUniverse(t, 100, 100)
	u.Set(0, 0, Alive)
	u.FillRandom()

	for i, c := range u.Cells() {
		if c != Dead && c != Alive {
			t.Fatalf("cell %v has value %v", i, uint8(c))
		}
	}
	density := float64(u.LiveCells()) / float64(len(u.Cells()))
	if density < 0.2 || density > 0.3 {
		t.Fatalf("density = %v, want about %v", density, AliveProbability)
	}
}

func TestFillRandom_SameSeed(t *testing.T) {
	a := newTestUniverse(t, 20, 20)
	b := newTestUniverse(t, 20, 20)
	a.FillRandom()
	b.FillRandom()
	if !sameCells(a.Cells(), b.Cells()) {
		t.Fatalf("same seed produced different universes")
	}
}

func TestLiveNeighbourCount_Wraps(t *testing.T) {
	u := newTestUniverse(t, 3, 3)
	u.Set(1, 1, Alive)
	for row := uint32(0); row < 3; row++ {
		for column := uint32(0); column < 3; column++ {
			want := uint8(1)
			if column == 1 && row == 1 {
				want = 0
			}
			if got := u.LiveNeighbourCount(column, row); got != want {
				t.Errorf("LiveNeighbourCount(%v, %v) = %v, want %v", column, row, got, want)
			}
		}
	}
}

func TestLiveNeighbourCount_Corners(t *testing.T) {
	u := newTestUniverse(t, 6, 5)
	//opposite corners touch each other on the torus
	u.Set(5, 4, Alive)
	u.Set(5, 0, Alive)
	u.Set(0, 4, Alive)
	if got := u.LiveNeighbourCount(0, 0); got != 3 {
		t.Fatalf("LiveNeighbourCount(0, 0) = %v, want 3", got)
	}
}

func TestLiveNeighbourCount_NarrowGrids(t *testing.T) {
	u := newTestUniverse(t, 2, 2)
	for i := range u.cells {
		u.cells[i] = Alive
	}
	for i := range u.cells {
		if got := u.LiveNeighbourCount(uint32(i%2), uint32(i/2)); got != 3 {
			t.Fatalf("LiveNeighbourCount on 2x2 = %v, want 3", got)
		}
	}

	u = newTestUniverse(t, 1, 4)
	u.Set(0, 1, Alive)
	u.Set(0, 3, Alive)
	if got := u.LiveNeighbourCount(0, 0); got != 2 {
		t.Fatalf("LiveNeighbourCount on 1x4 = %v, want 2", got)
	}
	if got := u.LiveNeighbourCount(0, 1); got != 0 {
		t.Fatalf("LiveNeighbourCount on 1x4 = %v, want 0", got)
	}
}

func TestTick_Rule(t *testing.T) {
	cases := []struct {
		cell       Cell
		neighbours uint8
		want       Cell
	}{
		{Alive, 0, Dead},
		{Alive, 1, Dead},
		{Alive, 2, Alive},
		{Alive, 3, Alive},
		{Alive, 4, Dead},
		{Alive, 8, Dead},
		{Dead, 2, Dead},
		{Dead, 3, Alive},
		{Dead, 4, Dead},
		{Dead, 0, Dead},
	}
	for _, tc := range cases {
		if got := tc.cell.nextState(tc.neighbours); got != tc.want {
			t.Errorf("%v with %v neighbours becomes %v, want %v", tc.cell, tc.neighbours, got, tc.want)
		}
	}
}

func TestTick_LonelyCellDies(t *testing.T) {
	u := newTestUniverse(t, 5, 5)
	u.Set(2, 2, Alive)
	u.Tick()
	assertAllDead(t, u, 25)
}

func TestTick_BlockOnTorus(t *testing.T) {
	u := newTestUniverse(t, 2, 2)
	u.Settle(templates["block"].Coordinates)
	for i := 0; i < 10; i++ {
		u.Tick()
		if u.LiveCells() != 4 {
			t.Fatalf("tick %v: live cells = %v, want 4", i+1, u.LiveCells())
		}
	}
}

func TestTick_Blinker(t *testing.T) {
	u := newTestUniverse(t, 5, 5)
	vertical := [][]int{{1, 0}, {1, 1}, {1, 2}}
	u.Settle(vertical)
	start := append([]Cell(nil), u.Cells()...)

	u.Tick()
	got := aliveAt(u)
	want := [][]int{{0, 1}, {1, 1}, {2, 1}}
	if len(got) != len(want) {
		t.Fatalf("after one tick alive cells are %v, want %v", got, want)
	}
	for i := range want {
		if got[i][0] != want[i][0] || got[i][1] != want[i][1] {
			t.Fatalf("after one tick alive cells are %v, want %v", got, want)
		}
	}

	u.Tick()
	if !sameCells(start, u.Cells()) {
		t.Fatalf("blinker did not return after two ticks: %v", aliveAt(u))
	}
}

func TestTick_Glider(t *testing.T) {
	u := newTestUniverse(t, 8, 8)
	glider, _ := TemplateByName("glider")
	u.SettleTemplate(glider, 0, 0)
	for i := 0; i < 4; i++ {
		u.Tick()
	}
	want := newTestUniverse(t, 8, 8)
	want.SettleTemplate(glider, 1, 1)
	if !sameCells(want.Cells(), u.Cells()) {
		t.Fatalf("glider is at %v, want %v", aliveAt(u), aliveAt(want))
	}

	//a full lap around the torus brings it back
	for i := 0; i < 4*7; i++ {
		u.Tick()
	}
	start := newTestUniverse(t, 8, 8)
	start.SettleTemplate(glider, 0, 0)
	if !sameCells(start.Cells(), u.Cells()) {
		t.Fatalf("glider is at %v after a lap, want %v", aliveAt(u), aliveAt(start))
	}
}

func TestTick_Deterministic(t *testing.T) {
	a := newTestUniverse(t, 30, 20)
	b := newTestUniverse(t, 30, 20)
	a.FillRandom()
	copy(b.Cells(), a.Cells())
	for i := 0; i < 20; i++ {
		a.Tick()
		b.Tick()
		if !sameCells(a.Cells(), b.Cells()) {
			t.Fatalf("tick %v: universes diverged", i+1)
		}
	}
}

func TestTick_ReadsOnlyPreviousGeneration(t *testing.T) {
	//a horizontal row of three cells on a wide grid: if updated cells leaked into the counts
	//the row would not turn into the vertical blinker
	u := newTestUniverse(t, 6, 6)
	u.Settle([][]int{{1, 2}, {2, 2}, {3, 2}})
	u.Tick()
	got := aliveAt(u)
	want := [][]int{{2, 1}, {2, 2}, {2, 3}}
	if len(got) != 3 {
		t.Fatalf("alive cells are %v, want %v", got, want)
	}
	for i := range want {
		if got[i][0] != want[i][0] || got[i][1] != want[i][1] {
			t.Fatalf("alive cells are %v, want %v", got, want)
		}
	}
}

func TestTick_SwapsBuffers(t *testing.T) {
	u := newTestUniverse(t, 10, 10)
	u.FillRandom()
	cells, scratch := &u.cells[0], &u.scratch[0]
	u.Tick()
	if &u.cells[0] != scratch || &u.scratch[0] != cells {
		t.Fatalf("buffers were not swapped")
	}
	if allocs := testing.AllocsPerRun(10, u.Tick); allocs != 0 {
		t.Fatalf("Tick allocates %v times", allocs)
	}
}

func TestBytes(t *testing.T) {
	u := newTestUniverse(t, 4, 3)
	u.Set(1, 0, Alive)
	u.Set(3, 2, Alive)
	b := u.Bytes()
	if len(b) != 12 {
		t.Fatalf("len(bytes) = %v, want 12", len(b))
	}
	for i, v := range b {
		want := byte(0)
		if i == 1 || i == 11 {
			want = 1
		}
		if v != want {
			t.Fatalf("byte %v = %v, want %v", i, v, want)
		}
	}
	//the bytes are a view of the same buffer
	u.ToggleCell(0, 0)
	if b[0] != 1 {
		t.Fatalf("bytes do not follow the cells")
	}
}

func TestCell_Toggle(t *testing.T) {
	c := Dead
	c.Toggle()
	if c != Alive || !c.IsAlive() {
		t.Fatalf("toggled dead is %v", c)
	}
	c.Toggle()
	if c != Dead || c.IsAlive() {
		t.Fatalf("toggled alive is %v", c)
	}
}
