package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/criminalintent/internal/sqlite"
	"github.com/mesh-intelligence/criminalintent/internal/worker"
	"github.com/mesh-intelligence/criminalintent/pkg/live"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	b := sqlite.NewBackend()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}
	require.NoError(t, b.Attach(cfg))
	repo, err := New(b, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close(context.Background())
		b.Detach()
	})
	return repo
}

func wait(t *testing.T, f *worker.Future) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.Wait(ctx)
}

func TestNew_Unattached(t *testing.T) {
	_, err := New(sqlite.NewBackend(), types.Config{}, nil)
	assert.ErrorIs(t, err, types.ErrDetached)
}

func TestRepository_AddAndGet(t *testing.T) {
	repo := newRepo(t)
	c := types.NewCrime()
	c.Title = "Pickpocket"

	require.NoError(t, wait(t, repo.AddCrime(c)))

	got, err := repo.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pickpocket", got.Title)
}

func TestRepository_AddDuplicateFailsThroughFuture(t *testing.T) {
	repo := newRepo(t)
	c := types.NewCrime()
	require.NoError(t, wait(t, repo.AddCrime(c)))

	err := wait(t, repo.AddCrime(c))
	assert.ErrorIs(t, err, types.ErrDuplicateID)
	assert.Equal(t, int64(1), repo.Stats().Failed)
}

func TestRepository_UpdateAndSave(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	ghost := types.NewCrime()
	assert.ErrorIs(t, wait(t, repo.UpdateCrime(ghost)), types.ErrNotFound)

	c := types.NewCrime()
	require.NoError(t, wait(t, repo.SaveCrime(c)))
	c.IsSolved = true
	require.NoError(t, wait(t, repo.UpdateCrime(c)))
	c.Suspect = "Dave"
	require.NoError(t, wait(t, repo.SaveCrime(c)))

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSolved)
	assert.Equal(t, "Dave", got.Suspect)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRepository_WritesApplyInSubmissionOrder(t *testing.T) {
	repo := newRepo(t)
	c := types.NewCrime()

	var last *worker.Future
	repo.AddCrime(c)
	for i := 0; i < 20; i++ {
		c.Title = string(rune('a' + i))
		last = repo.SaveCrime(c)
	}
	require.NoError(t, wait(t, last))

	got, err := repo.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, string(rune('a'+19)), got.Title)
}

func TestRepository_LiveListSeesQueuedWrites(t *testing.T) {
	repo := newRepo(t)

	var (
		mu   sync.Mutex
		last []types.Crime
	)
	sub := repo.Crimes().Observe(live.Immediate, func(v []types.Crime) {
		mu.Lock()
		last = v
		mu.Unlock()
	})
	defer sub.Cancel()

	for i := 0; i < 3; i++ {
		repo.AddCrime(types.NewCrime())
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(last) == 3
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRepository_CloseDrainsThenRejects(t *testing.T) {
	repo := newRepo(t)

	var futures []*worker.Future
	for i := 0; i < 10; i++ {
		futures = append(futures, repo.AddCrime(types.NewCrime()))
	}
	require.NoError(t, repo.Close(context.Background()))
	for _, f := range futures {
		assert.NoError(t, f.Err())
	}

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 10)

	assert.ErrorIs(t, wait(t, repo.AddCrime(types.NewCrime())), worker.ErrQueueClosed)
}
