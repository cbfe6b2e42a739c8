package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/criminalintent/internal/repository"
	"github.com/mesh-intelligence/criminalintent/internal/sqlite"
	"github.com/mesh-intelligence/criminalintent/internal/worker"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// store is an attached backend plus the repository writing to it.
type store struct {
	dao  types.CrimeDAO
	repo *repository.Repository
}

func openStore(t *testing.T) store {
	t.Helper()
	b := sqlite.NewBackend()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}
	require.NoError(t, b.Attach(cfg))
	t.Cleanup(func() { b.Detach() })
	dao, err := b.Crimes()
	require.NoError(t, err)
	repo, err := repository.New(b, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close(context.Background()) })
	return store{dao: dao, repo: repo}
}

func seed(t *testing.T, dao types.CrimeDAO, titles ...string) []types.Crime {
	t.Helper()
	var out []types.Crime
	for i, title := range titles {
		c := types.NewCrime()
		c.Title = title
		c.IsSolved = i%2 == 0
		c.Date = time.UnixMilli(c.Date.UnixMilli())
		require.NoError(t, dao.Insert(context.Background(), c))
		out = append(out, c)
	}
	return out
}

func TestExportImport_RoundTrip(t *testing.T) {
	for _, name := range []string{"crimes.jsonl", "crimes.jsonl.zst"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			src := openStore(t)
			want := seed(t, src.dao, "Theft", "Arson", "Fraud")

			path := filepath.Join(t.TempDir(), name)
			n, err := Export(ctx, src.repo, path)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			dst := openStore(t)
			res, err := Import(ctx, dst.repo, path, nil)
			require.NoError(t, err)
			assert.Equal(t, Result{Imported: 3}, res)
			assert.Equal(t, int64(3), dst.repo.Stats().Processed)

			got, err := dst.dao.List(ctx)
			require.NoError(t, err)
			require.Len(t, got, 3)
			for i := range want {
				assert.Equal(t, want[i].ID, got[i].ID)
				assert.Equal(t, want[i].Title, got[i].Title)
				assert.Equal(t, want[i].IsSolved, got[i].IsSolved)
				assert.True(t, want[i].Date.Equal(got[i].Date))
			}
		})
	}
}

func TestImport_Idempotent(t *testing.T) {
	ctx := context.Background()
	src := openStore(t)
	seed(t, src.dao, "Theft", "Arson")
	path := filepath.Join(t.TempDir(), "crimes.jsonl")
	_, err := Export(ctx, src.dao, path)
	require.NoError(t, err)

	dst := openStore(t)
	for i := 0; i < 2; i++ {
		_, err := Import(ctx, dst.repo, path, nil)
		require.NoError(t, err)
	}
	n, err := dst.dao.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImport_SkipsMalformedLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "crimes.jsonl")
	id := types.NewID()
	content := "{not json}\n" +
		`{"id":"00000000-0000-0000-0000-000000000000","title":"no id"}` + "\n" +
		"\n" +
		`{"id":"` + id.String() + `","title":"Theft","date":"2024-01-02T03:04:05Z","solved":true}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	st := openStore(t)
	res, err := Import(ctx, st.repo, path, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 1, Skipped: 2}, res)

	c, err := st.dao.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Theft", c.Title)
	assert.True(t, c.IsSolved)
	assert.Empty(t, c.Suspect)
}

func TestImport_RunsBehindQueuedWrites(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	c := types.NewCrime()
	c.Title = "archive"
	src := openStore(t)
	require.NoError(t, src.dao.Insert(ctx, c))
	path := filepath.Join(t.TempDir(), "crimes.jsonl")
	_, err := Export(ctx, src.dao, path)
	require.NoError(t, err)

	const queued = 300
	earlier := c
	earlier.Title = "queued earlier"
	for i := 0; i < queued; i++ {
		st.repo.SaveCrime(earlier)
	}

	res, err := Import(ctx, st.repo, path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, int64(queued+1), st.repo.Stats().Processed)

	got, err := st.dao.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "archive", got.Title)
}

func TestImport_StopsOnFailedWrite(t *testing.T) {
	ctx := context.Background()
	src := openStore(t)
	seed(t, src.dao, "Theft", "Arson")
	path := filepath.Join(t.TempDir(), "crimes.jsonl")
	_, err := Export(ctx, src.dao, path)
	require.NoError(t, err)

	dst := openStore(t)
	require.NoError(t, dst.repo.Close(ctx))
	res, err := Import(ctx, dst.repo, path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, worker.ErrQueueClosed)
	assert.NotErrorIs(t, err, ErrUnreadable)
	assert.Equal(t, 0, res.Imported)
}

func TestImport_MissingFile(t *testing.T) {
	_, err := Import(context.Background(), openStore(t).repo, filepath.Join(t.TempDir(), "nope.jsonl"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestEmptyPath(t *testing.T) {
	st := openStore(t)
	_, err := Export(context.Background(), st.dao, "")
	assert.ErrorIs(t, err, ErrEmptyPath)
	_, err = Import(context.Background(), st.repo, "", nil)
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestExport_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	st := openStore(t)
	seed(t, st.dao, "Theft")
	_, err := Export(context.Background(), st.dao, filepath.Join(dir, "out.jsonl"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.jsonl", entries[0].Name())
}

func TestCompressed(t *testing.T) {
	assert.True(t, Compressed("a.jsonl.zst"))
	assert.False(t, Compressed("a.jsonl"))
}
