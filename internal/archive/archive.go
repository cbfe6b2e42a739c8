// Package archive moves crime records in and out of the store as JSON Lines.
// Files whose name ends in .zst are zstd-compressed. Exports are written
// with the temp-file, fsync, rename pattern so a reader never sees a
// partial archive.
package archive

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/mesh-intelligence/criminalintent/internal/slogutil"
	"github.com/mesh-intelligence/criminalintent/internal/worker"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// compressedSuffix selects zstd compression.
const compressedSuffix = ".zst"

var (
	// ErrEmptyPath is returned when no archive path is given.
	ErrEmptyPath = errors.New("archive path is empty")

	// ErrUnreadable wraps failures to open or decode the archive file
	// itself, as opposed to failures writing its records.
	ErrUnreadable = errors.New("archive unreadable")
)

// Source lists the records to export.
type Source interface {
	List(ctx context.Context) ([]types.Crime, error)
}

// Sink queues record writes. Imports go through it so they share the one
// write queue with every other writer.
type Sink interface {
	SaveCrime(c types.Crime) *worker.Future
}

// Result summarizes an import.
type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"` // Malformed lines and records without an id.
}

// Compressed reports whether path names a zstd archive.
func Compressed(path string) bool {
	return strings.HasSuffix(path, compressedSuffix)
}

// Export writes every record returned by src.List to path, one JSON object
// per line, in insertion order. It returns the number of records written.
func Export(ctx context.Context, src Source, path string) (int, error) {
	if path == "" {
		return 0, ErrEmptyPath
	}
	crimes, err := src.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing crimes: %w", err)
	}
	if err := writeAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		for _, c := range crimes {
			if err := enc.Encode(c); err != nil {
				return fmt.Errorf("encoding crime %s: %w", c.ID, err)
			}
		}
		return nil
	}); err != nil {
		return 0, err
	}
	return len(crimes), nil
}

// Import reads records from path and queues an upsert of each one on dst,
// waiting for every write before reading the next line. Importing the same
// archive twice leaves the store unchanged. Malformed lines are skipped and
// logged at warn level. The first failed write stops the import.
func Import(ctx context.Context, dst Sink, path string, logger *slog.Logger) (Result, error) {
	if path == "" {
		return Result{}, ErrEmptyPath
	}
	logger = slogutil.OrDiscard(logger)

	var res Result
	err := readLines(path, func(lineNo int, line []byte) error {
		var c types.Crime
		if err := json.Unmarshal(line, &c); err != nil {
			logger.Warn("skipping malformed archive line", "path", path, "line", lineNo, "error", err)
			res.Skipped++
			return nil
		}
		if err := c.Validate(); err != nil {
			logger.Warn("skipping archive record", "path", path, "line", lineNo, "error", err)
			res.Skipped++
			return nil
		}
		if err := dst.SaveCrime(c).Wait(ctx); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		res.Imported++
		return nil
	})
	return res, err
}

// readLines calls fn for every non-empty line of path, decompressing when
// the name ends in .zst.
func readLines(path string, fn func(lineNo int, line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", ErrUnreadable, path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if Compressed(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("%w: opening zstd stream %s: %w", ErrUnreadable, path, err)
		}
		defer dec.Close()
		r = dec
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: scanning %s: %w", ErrUnreadable, path, err)
	}
	return nil
}

// writeAtomic writes path through a temp file in the same directory, then
// syncs and renames it into place. On any error the temp file is removed
// and path is left as it was.
func writeAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".archive-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriter(tmp)
	var w io.Writer = bw
	var enc *zstd.Encoder
	if Compressed(path) {
		enc, err = zstd.NewWriter(bw)
		if err != nil {
			return fmt.Errorf("creating zstd writer: %w", err)
		}
		w = enc
	}

	if err = write(w); err != nil {
		if enc != nil {
			enc.Close()
		}
		return err
	}
	if enc != nil {
		if err = enc.Close(); err != nil {
			return fmt.Errorf("closing zstd stream: %w", err)
		}
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
