package simulation

//Controller is what the viewers use to read and drive the simulation
type Controller interface {
	Status() Status
	Options() Options
	Snapshot() Snapshot
	StateCh() chan Status
	Settle(name string) error
	Randomize()
	Toggle(column int, row int)
	Resize(width uint32, height uint32) error
	RegisterViewer(v Viewer)
	Run()
	Stop()
	Step()
	Clear()
	Close()
}

var _ Controller = (*Simulation)(nil)
