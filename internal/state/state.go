// Package state keeps the last known progress of every job and persists it
// as a JSON document keyed by job id. Entries are overwritten, never
// appended.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusDone     Status = "DONE"
	StatusInactive Status = "INACTIVE"
	StatusError    Status = "ERROR"
)

type Progress struct {
	JobID              int       `json:"job_id"`
	JobName            string    `json:"name"`
	Timestamp          time.Time `json:"timestamp"`
	Status             Status    `json:"status"`
	TotalFiles         int       `json:"total_files"`
	TotalBytes         int64     `json:"total_size_bytes"`
	RemainingFiles     int       `json:"remaining_files"`
	RemainingBytes     int64     `json:"remaining_size_bytes"`
	Percent            int       `json:"progress"`
	CurrentSource      string    `json:"current_source,omitempty"`
	CurrentDestination string    `json:"current_destination,omitempty"`
}

// Percent is floor(100*processed/total), and 100 for an empty run.
func Percent(processed, total int) int {
	if total <= 0 {
		return 100
	}
	if processed >= total {
		return 100
	}
	if processed <= 0 {
		return 0
	}
	return processed * 100 / total
}

// Store is the shared job-id to progress map. It is created and owned by the
// application and handed to the engine as its progress sink.
type Store struct {
	mu      sync.Mutex
	path    string
	clock   clock.Clock
	entries map[int]Progress
}

// Open loads the state document at path, or starts empty when the file does
// not exist yet. An empty path gives a store that is never persisted.
func Open(path string, clk clock.Clock) (*Store, error) {
	if clk == nil {
		clk = clock.WallClock
	}
	s := &Store{path: path, clock: clk, entries: make(map[int]Progress)}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Annotatef(err, "read state %s", path)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, errors.Annotatef(err, "decode state %s", path)
	}
	if s.entries == nil {
		s.entries = make(map[int]Progress)
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// Update replaces the entry for p.JobID and persists the document.
func (s *Store) Update(p Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Timestamp.IsZero() {
		p.Timestamp = s.clock.Now()
	}
	s.entries[p.JobID] = p
	return s.save()
}

// MarkInactive resets the entry for id to an idle INACTIVE record, keeping
// the job name.
func (s *Store) MarkInactive(id int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		name = s.entries[id].JobName
	}
	s.entries[id] = Progress{
		JobID:     id,
		JobName:   name,
		Timestamp: s.clock.Now(),
		Status:    StatusInactive,
	}
	return s.save()
}

func (s *Store) Remove(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return nil
	}
	delete(s.entries, id)
	return s.save()
}

func (s *Store) Get(id int) (Progress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.entries[id]
	return p, ok
}

// List returns all entries ordered by job id.
func (s *Store) List() []Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Progress, 0, len(s.entries))
	for _, p := range s.entries {
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].JobID < out[b].JobID })
	return out
}

func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	body, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return errors.Annotate(err, "state marshal")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Annotatef(err, "create state dir %s", dir)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return errors.Annotatef(err, "write state %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Annotatef(err, "replace state %s", s.path)
	}
	return nil
}
