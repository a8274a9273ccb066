package universe

//Cell is the state of one grid position
//stored as a single byte so the buffer can be handed to a renderer as is: 0 - dead, 1 - alive
type Cell uint8

const (
	Dead  Cell = 0
	Alive Cell = 1
)

//Toggle flips the cell between Dead and Alive
func (c *Cell) Toggle() {
	*c ^= Alive
}

//IsAlive reports whether the cell is Alive
func (c Cell) IsAlive() bool {
	return c == Alive
}

func (c Cell) String() string {
	if c == Alive {
		return "alive"
	}
	return "dead"
}

//nextState applies the B3/S23 rule to the cell with n live neighbours
func (c Cell) nextState(n uint8) Cell {
	switch {
	case c == Alive && (n == 2 || n == 3):
		return Alive
	case c == Alive:
		//underpopulation (n < 2) or overpopulation (n > 3)
		return Dead
	case n == 3:
		//birth
		return Alive
	}
	return c
}
