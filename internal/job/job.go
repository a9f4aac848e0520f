package job

import (
	"strings"

	"github.com/juju/errors"
)

type Policy string

const (
	PolicyComplete     Policy = "complete"
	PolicyDifferential Policy = "differential"
)

// ParsePolicy accepts the canonical names case-insensitively, plus "full"
// and "diff".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "complete", "full":
		return PolicyComplete, nil
	case "differential", "diff":
		return PolicyDifferential, nil
	default:
		return "", errors.NotSupportedf("backup type %q", s)
	}
}

func (p Policy) Valid() bool {
	return p == PolicyComplete || p == PolicyDifferential
}

type Job struct {
	ID          int
	Name        string
	Source      string
	Destination string
	Policy      Policy
}

func (j Job) Validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return errors.NotValidf("empty job name")
	}
	if strings.TrimSpace(j.Source) == "" {
		return errors.NotValidf("job %q with empty source path", j.Name)
	}
	if strings.TrimSpace(j.Destination) == "" {
		return errors.NotValidf("job %q with empty destination path", j.Name)
	}
	if !j.Policy.Valid() {
		return errors.NotSupportedf("job %q backup type %q", j.Name, j.Policy)
	}
	return nil
}
