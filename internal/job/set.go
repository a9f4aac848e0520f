package job

import (
	"sort"
	"strings"

	"github.com/juju/errors"
)

// Set is the collection of configured jobs. It owns id assignment: ids are
// unique and never change once assigned.
type Set struct {
	jobs []Job
}

// NewSet builds a Set from already persisted jobs. Ids must be positive and
// unique.
func NewSet(jobs []Job) (*Set, error) {
	s := &Set{}
	seen := make(map[int]struct{}, len(jobs))
	for _, j := range jobs {
		if j.ID <= 0 {
			return nil, errors.NotValidf("job %q id %d", j.Name, j.ID)
		}
		if _, ok := seen[j.ID]; ok {
			return nil, errors.AlreadyExistsf("job id %d", j.ID)
		}
		seen[j.ID] = struct{}{}
		s.jobs = append(s.jobs, j)
	}
	sort.Slice(s.jobs, func(a, b int) bool { return s.jobs[a].ID < s.jobs[b].ID })
	return s, nil
}

func (s *Set) nextID() int {
	max := 0
	for _, j := range s.jobs {
		if j.ID > max {
			max = j.ID
		}
	}
	return max + 1
}

// Add validates j, assigns it a fresh id and stores it. Any id set on j is
// ignored.
func (s *Set) Add(j Job) (Job, error) {
	if err := j.Validate(); err != nil {
		return Job{}, err
	}
	if s.nameTaken(j.Name, 0) {
		return Job{}, errors.AlreadyExistsf("job %q", j.Name)
	}
	j.ID = s.nextID()
	s.jobs = append(s.jobs, j)
	return j, nil
}

// Update replaces the job with the same id.
func (s *Set) Update(j Job) error {
	if err := j.Validate(); err != nil {
		return err
	}
	for i := range s.jobs {
		if s.jobs[i].ID != j.ID {
			continue
		}
		if s.nameTaken(j.Name, j.ID) {
			return errors.AlreadyExistsf("job %q", j.Name)
		}
		s.jobs[i] = j
		return nil
	}
	return errors.NotFoundf("job %d", j.ID)
}

func (s *Set) Remove(id int) error {
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundf("job %d", id)
}

func (s *Set) Get(id int) (Job, error) {
	for _, j := range s.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return Job{}, errors.NotFoundf("job %d", id)
}

// All returns the jobs ordered by id.
func (s *Set) All() []Job {
	return append([]Job(nil), s.jobs...)
}

func (s *Set) Len() int {
	return len(s.jobs)
}

// Select returns the jobs for ids in the given order. Every id must exist.
func (s *Set) Select(ids []int) ([]Job, error) {
	out := make([]Job, 0, len(ids))
	for _, id := range ids {
		j, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

// Names compare case-insensitively.
func (s *Set) nameTaken(name string, exceptID int) bool {
	for _, j := range s.jobs {
		if j.ID != exceptID && strings.EqualFold(j.Name, name) {
			return true
		}
	}
	return false
}
