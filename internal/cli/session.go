package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/criminalintent/internal/repository"
	"github.com/mesh-intelligence/criminalintent/pkg/sqlite"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// closeTimeout bounds how long a command waits for queued writes on exit.
const closeTimeout = 10 * time.Second

// session is an attached store plus the repository over it, opened for the
// lifetime of one command.
type session struct {
	settings settings
	logger   *slog.Logger
	closeLog func() error
	backend  *sqlite.Backend
	repo     *repository.Repository
}

// openSession resolves configuration, attaches the backend, and builds the
// repository. The caller must call close.
func (o *rootOptions) openSession(cmd *cobra.Command) (*session, error) {
	s, err := o.resolveSettings()
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := o.logger(cmd.ErrOrStderr(), s)
	if err != nil {
		return nil, err
	}

	backend := sqlite.NewBackend(logger)
	if err := backend.Attach(s.store); err != nil {
		closeLog()
		return nil, attachError(fmt.Errorf("open store: %w", err))
	}

	repo, err := repository.New(backend, s.store, logger)
	if err != nil {
		backend.Detach()
		closeLog()
		return nil, sysError(err)
	}
	return &session{settings: s, logger: logger, closeLog: closeLog, backend: backend, repo: repo}, nil
}

// close drains queued writes and detaches the store.
func (s *session) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	repoErr := s.repo.Close(ctx)
	detachErr := s.backend.Detach()
	err := errors.Join(repoErr, detachErr)
	if err != nil {
		s.logger.Error("closing store", "error", err)
	}
	if cerr := s.closeLog(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close log file: %w", cerr))
	}
	if err != nil {
		return sysError(err)
	}
	return nil
}

// parseID parses a crime id argument.
func parseID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, userError(fmt.Errorf("invalid crime id %q", arg))
	}
	return id, nil
}

// attachError classifies a failure to attach the store. A schema that
// cannot be migrated is a problem with the user's data, not the program.
func attachError(err error) error {
	if errors.Is(err, types.ErrMigrationGap) {
		return userError(err)
	}
	return sysError(err)
}

// storeError classifies an error from a store operation.
func storeError(err error) error {
	switch {
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrDuplicateID),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidData):
		return userError(err)
	default:
		return sysError(err)
	}
}
