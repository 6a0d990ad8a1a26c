package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"harvester-bot/internal/model"
)

// FileScoreRepository keeps scores in a flat JSON object {"<user id>": score}.
// Key order in the file is first-insertion order and is preserved across restarts.
type FileScoreRepository struct {
	path string

	mu     sync.Mutex
	order  []int64
	scores map[int64]int64
}

// NewFileScoreRepository loads path, or starts empty when the file does not exist.
func NewFileScoreRepository(path string) (*FileScoreRepository, error) {
	r := &FileScoreRepository{path: path, scores: make(map[int64]int64)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read score file: %w", err)
	}
	if err := r.decode(data); err != nil {
		return nil, err
	}

	log.Info().Str("path", path).Int("users", len(r.order)).Msg("Score file loaded")
	return r, nil
}

// decode reads the JSON object token by token so that key order survives.
func (r *FileScoreRepository) decode(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to parse score file: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("failed to parse score file: expected object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to parse score file: %w", err)
		}
		key, _ := keyTok.(string)

		var value json.Number
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("failed to parse score for %q: %w", key, err)
		}

		userID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			log.Warn().Str("key", key).Msg("Skipping non-numeric user id in score file")
			continue
		}
		points, err := value.Int64()
		if err != nil {
			log.Warn().Str("key", key).Str("value", value.String()).Msg("Skipping non-integer score")
			continue
		}
		if _, seen := r.scores[userID]; !seen {
			r.order = append(r.order, userID)
		}
		r.scores[userID] = points
	}

	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse score file: %w", err)
	}
	return nil
}

// Get returns the user's score.
func (r *FileScoreRepository) Get(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scores[userID], nil
}

// Increment adds delta and rewrites the file. A failed write leaves the in-memory
// ledger unchanged.
func (r *FileScoreRepository) Increment(_ context.Context, userID int64, delta int64) (int64, error) {
	if delta < 0 {
		return 0, ErrNegativeDelta
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, existed := r.scores[userID]
	r.scores[userID] = prev + delta
	if !existed {
		r.order = append(r.order, userID)
	}

	if err := r.saveLocked(); err != nil {
		if existed {
			r.scores[userID] = prev
		} else {
			delete(r.scores, userID)
			r.order = r.order[:len(r.order)-1]
		}
		return 0, err
	}
	return r.scores[userID], nil
}

// All returns every score in insertion order.
func (r *FileScoreRepository) All(_ context.Context) ([]model.Score, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Score, len(r.order))
	for i, id := range r.order {
		out[i] = model.Score{UserID: id, Points: r.scores[id]}
	}
	return out, nil
}

// Close is a no-op; every increment is already on disk.
func (r *FileScoreRepository) Close() error {
	return nil
}

func (r *FileScoreRepository) saveLocked() error {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, id := range r.order {
		if i > 0 {
			buf.WriteString(",")
		}
		fmt.Fprintf(&buf, "\n  %q: %d", strconv.FormatInt(id, 10), r.scores[id])
	}
	if len(r.order) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".scores-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp score file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write score file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync score file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close score file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("failed to replace score file: %w", err)
	}
	return nil
}
