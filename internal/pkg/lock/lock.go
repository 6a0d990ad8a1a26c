// Package lock keeps a single bot instance per working directory with a pid lock file.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"
)

// pidRunning reports whether a process with pid exists.
var pidRunning = func(ctx context.Context, pid int32) (bool, error) {
	return process.PidExistsWithContext(ctx, pid)
}

// ProcessLock is a held lock file. Release removes it.
type ProcessLock struct {
	path string
	pid  int
	once sync.Once
}

// Acquire takes the lock at path. A lock file left behind by a dead process, by
// an earlier run that had this process's pid, or with unreadable contents is taken
// over; a live owner yields ErrAlreadyRunning.
func Acquire(ctx context.Context, path string) (*ProcessLock, error) {
	self := os.Getpid()
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		pid, perr := strconv.Atoi(strings.TrimSpace(string(raw)))
		if perr != nil || pid <= 0 {
			log.Warn().Str("path", path).Msg("Corrupt lock file, taking over")
			break
		}
		// Containers restart with the same pid, often 1.
		if pid == self {
			log.Warn().Int("stale_pid", pid).Msg("Lock file holds our own pid, taking over")
			break
		}
		alive, aerr := pidRunning(ctx, int32(pid))
		if aerr != nil {
			return nil, fmt.Errorf("failed to check pid %d: %w", pid, aerr)
		}
		if alive {
			return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
		}
		log.Warn().Int("stale_pid", pid).Msg("Found lock file of a dead process, taking over")
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(self)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}
	log.Debug().Str("path", path).Int("pid", self).Msg("Lock file acquired")
	return &ProcessLock{path: path, pid: self}, nil
}

// PID returns the pid written to the lock file.
func (l *ProcessLock) PID() int {
	return l.pid
}

// Release removes the lock file. Safe to call more than once.
func (l *ProcessLock) Release() error {
	var err error
	l.once.Do(func() {
		if rmErr := os.Remove(l.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = fmt.Errorf("failed to remove lock file: %w", rmErr)
			return
		}
		log.Info().Str("path", l.path).Msg("Lock file removed")
	})
	return err
}
