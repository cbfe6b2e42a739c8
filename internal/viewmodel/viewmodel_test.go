package viewmodel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/criminalintent/internal/repository"
	"github.com/mesh-intelligence/criminalintent/internal/sqlite"
	"github.com/mesh-intelligence/criminalintent/internal/worker"
	"github.com/mesh-intelligence/criminalintent/pkg/live"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// fakeStore records calls and serves fixed handles.
type fakeStore struct {
	mu      sync.Mutex
	lookups map[uuid.UUID]int
	added   []types.Crime
	updated []types.Crime
	rows    map[uuid.UUID]*live.MutableData[*types.Crime]
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lookups: make(map[uuid.UUID]int),
		rows:    make(map[uuid.UUID]*live.MutableData[*types.Crime]),
	}
}

func (s *fakeStore) Crimes() *live.Data[[]types.Crime] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return live.NewData(append([]types.Crime(nil), s.added...))
}

func (s *fakeStore) Crime(id uuid.UUID) *live.Data[*types.Crime] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups[id]++
	row, ok := s.rows[id]
	if !ok {
		row = live.NewMutableData[*types.Crime](live.Lifecycle{})
		row.Set(nil)
		s.rows[id] = row
	}
	return row.AsData()
}

func (s *fakeStore) AddCrime(c types.Crime) *worker.Future {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, c)
	return worker.Completed(nil)
}

func (s *fakeStore) UpdateCrime(c types.Crime) *worker.Future {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = append(s.updated, c)
	return worker.Completed(nil)
}

func (s *fakeStore) lookupCount(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups[id]
}

func TestCrimeList_NewCrime(t *testing.T) {
	store := newFakeStore()
	vm := NewCrimeListViewModel(store)

	c, f := vm.NewCrime()
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.False(t, c.Date.IsZero())
	assert.Empty(t, c.Title)
	assert.NoError(t, f.Err())

	require.Len(t, store.added, 1)
	assert.Equal(t, c.ID, store.added[0].ID)
}

func TestCrimeList_AddCrimeReturnsID(t *testing.T) {
	store := newFakeStore()
	vm := NewCrimeListViewModel(store)

	c := types.NewCrime()
	id, _ := vm.AddCrime(c)
	assert.Equal(t, c.ID, id)

	v, ok := vm.Crimes().Value()
	require.True(t, ok)
	assert.Len(t, v, 1)
}

func TestCrimeDetail_StateAndReload(t *testing.T) {
	store := newFakeStore()
	vm := NewCrimeDetailViewModel(store)
	assert.Equal(t, StateUninitialized, vm.State())
	assert.Equal(t, "uninitialized", vm.State().String())

	var (
		mu   sync.Mutex
		seen []*types.Crime
	)
	sub := vm.Crime().Observe(live.Immediate, func(c *types.Crime) {
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
	})
	defer sub.Cancel()

	_, ok := vm.Crime().Value()
	assert.False(t, ok, "no value before LoadCrime")

	id := types.NewID()
	vm.LoadCrime(id)
	vm.LoadCrime(id)
	assert.Equal(t, StateLive, vm.State())
	assert.Equal(t, 1, store.lookupCount(id), "same id must not re-query")

	got, ok := vm.SelectedID()
	require.True(t, ok)
	assert.Equal(t, id, got)

	mu.Lock()
	require.Len(t, seen, 1)
	assert.Nil(t, seen[0], "absent row is nil, not an error")
	mu.Unlock()

	c := types.Crime{ID: id, Title: "Theft"}
	store.rows[id].Set(&c)
	mu.Lock()
	require.Len(t, seen, 2)
	assert.Equal(t, "Theft", seen[1].Title)
	mu.Unlock()
}

func TestCrimeDetail_SaveUsesUpdate(t *testing.T) {
	store := newFakeStore()
	vm := NewCrimeDetailViewModel(store)

	c := types.NewCrime()
	c.Suspect = "Eve"
	require.NoError(t, vm.SaveCrime(c).Err())
	require.Len(t, store.updated, 1)
	assert.Equal(t, "Eve", store.updated[0].Suspect)
	assert.Empty(t, store.added)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "live", StateLive.String())
	assert.Equal(t, "unknown", State(42).String())
}

// TestScreens_EndToEnd wires both holders to a real store and drives them
// through a dispatcher loop, as the CLI and a UI would.
func TestScreens_EndToEnd(t *testing.T) {
	b := sqlite.NewBackend()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}
	require.NoError(t, b.Attach(cfg))
	defer b.Detach()
	repo, err := repository.New(b, cfg, nil)
	require.NoError(t, err)
	defer repo.Close(context.Background())

	loop := live.NewLoop()
	defer loop.Stop()

	list := NewCrimeListViewModel(repo)
	detail := NewCrimeDetailViewModel(repo)

	var (
		mu      sync.Mutex
		crimes  []types.Crime
		current *types.Crime
	)
	listSub := list.Crimes().Observe(loop, func(v []types.Crime) {
		mu.Lock()
		crimes = v
		mu.Unlock()
	})
	defer listSub.Cancel()
	detailSub := detail.Crime().Observe(loop, func(c *types.Crime) {
		mu.Lock()
		current = c
		mu.Unlock()
	})
	defer detailSub.Cancel()

	c, f := list.NewCrime()
	detail.LoadCrime(c.ID)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.Wait(ctx))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(crimes) == 1 && current != nil && current.ID == c.ID
	}, 5*time.Second, 10*time.Millisecond)

	c.Title = "Forged cheque"
	c.IsSolved = true
	require.NoError(t, detail.SaveCrime(c).Wait(ctx))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return current != nil && current.IsSolved && len(crimes) == 1 && crimes[0].Title == "Forged cheque"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCrimeDetail_NilIDLoadsAbsent(t *testing.T) {
	b := sqlite.NewBackend()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}
	require.NoError(t, b.Attach(cfg))
	defer b.Detach()
	repo, err := repository.New(b, cfg, nil)
	require.NoError(t, err)
	defer repo.Close(context.Background())

	detail := NewCrimeDetailViewModel(repo)
	delivered := make(chan *types.Crime, 1)
	sub := detail.Crime().Observe(live.Immediate, func(c *types.Crime) {
		select {
		case delivered <- c:
		default:
		}
	})
	defer sub.Cancel()

	detail.LoadCrime(uuid.Nil)
	select {
	case c := <-delivered:
		assert.Nil(t, c)
	case <-time.After(5 * time.Second):
		t.Fatal("no value delivered for the nil id")
	}
	assert.Equal(t, StateLive, detail.State())
}
