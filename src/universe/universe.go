package universe

import (
	"fmt"
	"math/rand"
	"time"
	"unsafe"

	"github.com/pkg/errors"
)

/*
	Toroidal Game of Life universe with two persistent buffers.
	The next generation is calculated from cells into scratch and then the buffers are swapped,
	so the current generation is read-only during the pass and no allocation happens per tick.
	The universe is not safe for concurrent use, the owner has to serialize all calls.
*/

//AliveProbability is the chance of every cell to be settled by FillRandom
const AliveProbability = 0.25

//MaxCells limits width*height of a single universe
const MaxCells = 1 << 28

var (
	ErrZeroDimension = errors.New("universe: width and height must be greater than zero")
	ErrTooLarge      = errors.New("universe: grid is too large")
)

type Universe struct {
	width   uint32
	height  uint32
	cells   []Cell
	scratch []Cell
	rnd     *rand.Rand
}

//New creates the universe with all cells dead
func New(width uint32, height uint32) (*Universe, error) {
	return NewWithSource(width, height, rand.NewSource(time.Now().UnixNano()))
}

//NewWithSource creates the universe which uses src for FillRandom
func NewWithSource(width uint32, height uint32, src rand.Source) (*Universe, error) {
	n, err := cellsLength(width, height)
	if err != nil {
		return nil, errors.Wrap(err, "[New]")
	}
	return &Universe{
		width:   width,
		height:  height,
		cells:   make([]Cell, n),
		scratch: make([]Cell, n),
		rnd:     rand.New(src),
	}, nil
}

//Width returns the number of columns
func (u *Universe) Width() uint32 {
	return u.width
}

//Height returns the number of rows
func (u *Universe) Height() uint32 {
	return u.height
}

//Resize replaces the dimensions and kills all cells, the previous state is discarded
//the universe is left untouched when the new dimensions are rejected
func (u *Universe) Resize(width uint32, height uint32) error {
	n, err := cellsLength(width, height)
	if err != nil {
		return errors.Wrapf(err, "[Resize] %vx%v", width, height)
	}
	u.width = width
	u.height = height
	u.cells = make([]Cell, n)
	//scratch is always fully overwritten before it is read
	if cap(u.scratch) >= n {
		u.scratch = u.scratch[:n]
	} else {
		u.scratch = make([]Cell, n)
	}
	return nil
}

//GetIndex maps column, row to the position in the row-major buffer
func (u *Universe) GetIndex(column uint32, row uint32) int {
	u.mustContain(column, row)
	return u.index(column, row)
}

//Contains reports whether column, row is inside the grid
func (u *Universe) Contains(column uint32, row uint32) bool {
	return column < u.width && row < u.height
}

//Get returns the cell at column, row
func (u *Universe) Get(column uint32, row uint32) Cell {
	return u.cells[u.GetIndex(column, row)]
}

//Set places c at column, row
func (u *Universe) Set(column uint32, row uint32, c Cell) {
	u.cells[u.GetIndex(column, row)] = c
}

//ToggleCell inverses the cell state at column, row
func (u *Universe) ToggleCell(column uint32, row uint32) {
	u.cells[u.GetIndex(column, row)].Toggle()
}

//FillRandom settles every cell independently, alive with AliveProbability
func (u *Universe) FillRandom() {
	for i := range u.cells {
		if u.rnd.Float64() < AliveProbability {
			u.cells[i] = Alive
		} else {
			u.cells[i] = Dead
		}
	}
}

//Reset kills all cells
func (u *Universe) Reset() {
	for i := range u.cells {
		u.cells[i] = Dead
	}
}

//LiveNeighbourCount counts alive cells around column, row
//this is the only place where the grid wraps
func (u *Universe) LiveNeighbourCount(column uint32, row uint32) uint8 {
	u.mustContain(column, row)
	return u.liveNeighbourCount(column, row)
}

func (u *Universe) liveNeighbourCount(column uint32, row uint32) (count uint8) {
	rowDeltas, nr := wrapDeltas(u.height)
	colDeltas, nc := wrapDeltas(u.width)
	for _, dr := range rowDeltas[:nr] {
		for _, dc := range colDeltas[:nc] {
			//skip my position
			if dr == 0 && dc == 0 {
				continue
			}
			//uint64 keeps the sum from overflowing on grids close to 1<<32 wide
			c := uint32((uint64(column) + uint64(dc)) % uint64(u.width))
			r := uint32((uint64(row) + uint64(dr)) % uint64(u.height))
			count += uint8(u.cells[u.index(c, r)])
		}
	}
	return
}

//wrapDeltas returns the distinct -1, 0, +1 offsets modulo size, size-1 stands for -1
//on grids narrower than 3 the offsets coincide, so every neighbour is counted once
func wrapDeltas(size uint32) (d [3]uint32, n int) {
	switch size {
	case 1:
		return [3]uint32{0}, 1
	case 2:
		return [3]uint32{1, 0}, 2
	}
	return [3]uint32{size - 1, 0, 1}, 3
}

//Tick calculates the next generation
//all neighbours are counted on cells, the results go to scratch, then the buffers are swapped
func (u *Universe) Tick() {
	for row := uint32(0); row < u.height; row++ {
		for column := uint32(0); column < u.width; column++ {
			idx := u.index(column, row)
			u.scratch[idx] = u.cells[idx].nextState(u.liveNeighbourCount(column, row))
		}
	}
	u.cells, u.scratch = u.scratch, u.cells
}

//Cells returns the current generation in row-major order
//the slice is borrowed: it is valid until the next mutating call
func (u *Universe) Cells() []Cell {
	return u.cells
}

//Bytes returns the same buffer as Cells viewed as raw bytes, 0 - dead, 1 - alive
func (u *Universe) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&u.cells[0])), len(u.cells))
}

//LiveCells calculates the count of live cells
func (u *Universe) LiveCells() (n int) {
	for _, c := range u.cells {
		n += int(c)
	}
	return
}

func (u *Universe) index(column uint32, row uint32) int {
	return int(row)*int(u.width) + int(column)
}

func (u *Universe) mustContain(column uint32, row uint32) {
	if !u.Contains(column, row) {
		panic(fmt.Sprintf("universe: coordinate (%v, %v) outside %vx%v grid", column, row, u.width, u.height))
	}
}

//cellsLength validates the dimensions and returns the buffer length
func cellsLength(width uint32, height uint32) (int, error) {
	if width == 0 || height == 0 {
		return 0, ErrZeroDimension
	}
	n := uint64(width) * uint64(height)
	if n > MaxCells {
		return 0, errors.Wrapf(ErrTooLarge, "%v cells, the limit is %v", n, MaxCells)
	}
	return int(n), nil
}
