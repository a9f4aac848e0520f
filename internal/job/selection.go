package job

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// ErrInvalidSelection is returned for selection arguments that are neither a
// single id, a ';'-separated list nor an inclusive 'a-b' range.
var ErrInvalidSelection = errors.ConstError("invalid job selection")

// MaxRangeSpan bounds how many ids an 'a-b' range may name.
const MaxRangeSpan = 10000

// ParseSelection parses the job selection given on the command line: "3",
// "1;3;5" or "1-5". Repeated ids are kept once, in first-seen order.
func ParseSelection(arg string) ([]int, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, invalidSelection(arg)
	}

	if strings.Contains(arg, "-") {
		parts := strings.Split(arg, "-")
		if len(parts) != 2 {
			return nil, invalidSelection(arg)
		}
		from, err := parseID(parts[0])
		if err != nil {
			return nil, invalidSelection(arg)
		}
		to, err := parseID(parts[1])
		if err != nil || to < from {
			return nil, invalidSelection(arg)
		}
		if to-from >= MaxRangeSpan {
			return nil, errors.Annotatef(ErrInvalidSelection, "%q spans more than %d ids", arg, MaxRangeSpan)
		}
		ids := make([]int, 0, to-from+1)
		for n := 0; n <= to-from; n++ {
			ids = append(ids, from+n)
		}
		return ids, nil
	}

	var ids []int
	seen := make(map[int]struct{})
	for _, part := range strings.Split(arg, ";") {
		id, err := parseID(part)
		if err != nil {
			return nil, invalidSelection(arg)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidSelection
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, ErrInvalidSelection
	}
	return id, nil
}

func invalidSelection(arg string) error {
	return errors.Annotatef(ErrInvalidSelection, "%q (use 3, 1;3;5 or 1-5)", arg)
}
