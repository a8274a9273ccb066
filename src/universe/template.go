package universe

import "sort"

//Template represent the seeding template which can used to settle the universe with predefined data
type Template struct {
	Name        string  //template name
	Descr       string  //template descr
	Coordinates [][]int //array of [column,row] coordinates
}

var templates = map[string]Template{
	"block": {
		"block",
		"2x2 still life",
		[][]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	},
	"blinker": {
		"blinker",
		"period 2 oscillator",
		[][]int{{1, 0}, {1, 1}, {1, 2}},
	},
	"glider": {
		"glider",
		"moves one cell down and right every 4 generations",
		[][]int{{1, 0}, {2, 1}, {0, 2}, {1, 2}, {2, 2}},
	},
	"testSample": {
		"testSample",
		"the test sample with 3 stable patterns",
		[][]int{{1, 1}, {1, 2}, {2, 1}, {2, 2}, {3, 3}, {4, 2}, {4, 3}, {5, 3}},
	},
}

//TemplateByName looks the built-in template up
func TemplateByName(name string) (Template, bool) {
	t, ok := templates[name]
	return t, ok
}

//TemplateNames returns the sorted names of the built-in templates
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for k := range templates {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

//Settle makes the cells at the listed [column,row] coordinates alive
//coordinates outside the grid are skipped
func (u *Universe) Settle(vc [][]int) {
	for _, v := range vc {
		if len(v) < 2 || v[0] < 0 || v[1] < 0 {
			continue
		}
		c, r := uint64(v[0]), uint64(v[1])
		if c >= uint64(u.width) || r >= uint64(u.height) {
			continue
		}
		u.cells[u.index(uint32(c), uint32(r))] = Alive
	}
}

//SettleTemplate places the template with its origin at column, row
//cells falling outside the grid are skipped
func (u *Universe) SettleTemplate(t Template, column int, row int) {
	vc := make([][]int, 0, len(t.Coordinates))
	for _, v := range t.Coordinates {
		if len(v) < 2 {
			continue
		}
		vc = append(vc, []int{v[0] + column, v[1] + row})
	}
	u.Settle(vc)
}
