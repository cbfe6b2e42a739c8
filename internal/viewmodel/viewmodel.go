// Package viewmodel holds presentation state for the crime list and crime
// detail screens. A holder lives as long as the screen that owns it and
// exposes live handles that the screen observes on its own dispatcher.
package viewmodel

import (
	"github.com/google/uuid"

	"github.com/mesh-intelligence/criminalintent/internal/worker"
	"github.com/mesh-intelligence/criminalintent/pkg/live"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// CrimeStore is the part of the repository the holders use.
type CrimeStore interface {
	Crimes() *live.Data[[]types.Crime]
	Crime(id uuid.UUID) *live.Data[*types.Crime]
	AddCrime(c types.Crime) *worker.Future
	UpdateCrime(c types.Crime) *worker.Future
}

// CrimeListViewModel backs the list screen.
type CrimeListViewModel struct {
	store CrimeStore
}

// NewCrimeListViewModel returns a list holder reading from store.
func NewCrimeListViewModel(store CrimeStore) *CrimeListViewModel {
	return &CrimeListViewModel{store: store}
}

// Crimes returns the live list of every crime.
func (vm *CrimeListViewModel) Crimes() *live.Data[[]types.Crime] {
	return vm.store.Crimes()
}

// AddCrime queues an insert of c and returns its id so the caller can open
// the detail screen without waiting for the write.
func (vm *CrimeListViewModel) AddCrime(c types.Crime) (uuid.UUID, *worker.Future) {
	return c.ID, vm.store.AddCrime(c)
}

// NewCrime creates a crime with default fields and queues its insert.
func (vm *CrimeListViewModel) NewCrime() (types.Crime, *worker.Future) {
	c := types.NewCrime()
	_, f := vm.AddCrime(c)
	return c, f
}
