package viewmodel

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/criminalintent/internal/worker"
	"github.com/mesh-intelligence/criminalintent/pkg/live"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// State is the detail holder's lifecycle position.
type State int

const (
	// StateUninitialized means no crime has been selected.
	StateUninitialized State = iota
	// StateLive means the holder tracks the selected crime's row.
	StateLive
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLive:
		return "live"
	default:
		return "unknown"
	}
}

// CrimeDetailViewModel backs the detail screen. The crime handle follows
// whichever id was last loaded; loading the same id again does not re-query.
type CrimeDetailViewModel struct {
	store    CrimeStore
	selected *live.MutableData[uuid.UUID]
	crime    *live.Data[*types.Crime]

	mu    sync.Mutex
	state State
}

// NewCrimeDetailViewModel returns a detail holder with nothing selected.
func NewCrimeDetailViewModel(store CrimeStore) *CrimeDetailViewModel {
	selected := live.NewMutableData[uuid.UUID](live.Lifecycle{})
	return &CrimeDetailViewModel{
		store:    store,
		selected: selected,
		crime:    live.SwitchMap(selected.AsData(), store.Crime),
	}
}

// LoadCrime selects the crime the holder tracks.
func (vm *CrimeDetailViewModel) LoadCrime(id uuid.UUID) {
	vm.mu.Lock()
	vm.state = StateLive
	vm.mu.Unlock()
	vm.selected.Set(id)
}

// Crime returns the live selected crime. It has no value until LoadCrime
// is called, and holds nil while no row matches the selected id.
func (vm *CrimeDetailViewModel) Crime() *live.Data[*types.Crime] {
	return vm.crime
}

// SelectedID returns the loaded id and whether one has been loaded.
func (vm *CrimeDetailViewModel) SelectedID() (uuid.UUID, bool) {
	return vm.selected.Value()
}

// State reports whether a crime has been loaded.
func (vm *CrimeDetailViewModel) State() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// SaveCrime queues an update of c. Screens call it when they stop being
// visible, not on every edit.
func (vm *CrimeDetailViewModel) SaveCrime(c types.Crime) *worker.Future {
	return vm.store.UpdateCrime(c)
}
