package interaction

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/discoverymesh/discoverymesh/core"
)

// JSONLStore appends one JSON record per line to a file. Appends are
// serialized with a mutex; reads re-scan the file so they always see
// records written by earlier process runs.
type JSONLStore struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewJSONLStore opens (or creates) the log file in append mode.
func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, core.WrapError(core.KindUpstreamFailure, "interaction.open", err)
	}
	return &JSONLStore{path: path, file: f}, nil
}

// Append implements Store.
func (s *JSONLStore) Append(_ context.Context, rec Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return core.WrapError(core.KindValidation, "interaction.append", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(append(line, '\n')); err != nil {
		return core.WrapError(core.KindUpstreamFailure, "interaction.append", err)
	}
	return nil
}

// Recent implements Store. Malformed lines are skipped rather than
// failing the whole read.
func (s *JSONLStore) Recent(_ context.Context, userID string, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, core.WrapError(core.KindUpstreamFailure, "interaction.recent", err)
	}
	defer f.Close()

	var all []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if userID != "" && rec.UserID != userID {
			continue
		}
		all = append(all, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, core.WrapError(core.KindUpstreamFailure, "interaction.recent", err)
	}

	out := make([]Record, 0, limit)
	for i := len(all) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Close releases the underlying file handle.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
