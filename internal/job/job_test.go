package job

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"complete", PolicyComplete, false},
		{"Complete", PolicyComplete, false},
		{" full ", PolicyComplete, false},
		{"differential", PolicyDifferential, false},
		{"DIFF", PolicyDifferential, false},
		{"incremental", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, errors.NotSupported), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func validJob(name string) Job {
	return Job{Name: name, Source: "/src/" + name, Destination: "/dst/" + name, Policy: PolicyComplete}
}

func TestJobValidate(t *testing.T) {
	j := validJob("docs")
	assert.NoError(t, j.Validate())

	j.Name = "  "
	assert.True(t, errors.Is(j.Validate(), errors.NotValid))

	j = validJob("docs")
	j.Source = ""
	assert.True(t, errors.Is(j.Validate(), errors.NotValid))

	j = validJob("docs")
	j.Destination = ""
	assert.True(t, errors.Is(j.Validate(), errors.NotValid))

	j = validJob("docs")
	j.Policy = "mirror"
	assert.True(t, errors.Is(j.Validate(), errors.NotSupported))
}

func TestSetAddAssignsUniqueIDs(t *testing.T) {
	s, err := NewSet(nil)
	require.NoError(t, err)

	a, err := s.Add(validJob("a"))
	require.NoError(t, err)
	b, err := s.Add(Job{ID: 42, Name: "b", Source: "/s", Destination: "/d", Policy: PolicyDifferential})
	require.NoError(t, err)

	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID, "caller supplied ids are ignored")

	require.NoError(t, s.Remove(1))
	c, err := s.Add(validJob("c"))
	require.NoError(t, err)
	assert.Equal(t, 3, c.ID, "ids are not reused while a higher id exists")

	_, err = s.Add(validJob("c"))
	assert.True(t, errors.Is(err, errors.AlreadyExists), "got %v", err)
	_, err = s.Add(validJob("C"))
	assert.True(t, errors.Is(err, errors.AlreadyExists), "names compare case-insensitively")
}

func TestNewSetRejectsBadIDs(t *testing.T) {
	_, err := NewSet([]Job{{ID: 0, Name: "x"}})
	assert.True(t, errors.Is(err, errors.NotValid))

	_, err = NewSet([]Job{{ID: 1, Name: "x"}, {ID: 1, Name: "y"}})
	assert.True(t, errors.Is(err, errors.AlreadyExists))
}

func TestSetUpdateRemoveGet(t *testing.T) {
	s, err := NewSet([]Job{
		{ID: 3, Name: "c", Source: "/s", Destination: "/d", Policy: PolicyComplete},
		{ID: 1, Name: "a", Source: "/s", Destination: "/d", Policy: PolicyComplete},
	})
	require.NoError(t, err)

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, 3, all[1].ID)

	updated := all[0]
	updated.Policy = PolicyDifferential
	require.NoError(t, s.Update(updated))
	got, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, PolicyDifferential, got.Policy)

	clash := all[0]
	clash.Name = "c"
	assert.True(t, errors.Is(s.Update(clash), errors.AlreadyExists))

	missing := validJob("z")
	missing.ID = 99
	assert.True(t, errors.Is(s.Update(missing), errors.NotFound))

	assert.True(t, errors.Is(s.Remove(99), errors.NotFound))
	require.NoError(t, s.Remove(3))
	assert.Equal(t, 1, s.Len())

	_, err = s.Get(3)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestSetSelect(t *testing.T) {
	s, err := NewSet([]Job{
		{ID: 1, Name: "a", Source: "/s", Destination: "/d", Policy: PolicyComplete},
		{ID: 2, Name: "b", Source: "/s", Destination: "/d", Policy: PolicyComplete},
		{ID: 3, Name: "c", Source: "/s", Destination: "/d", Policy: PolicyComplete},
	})
	require.NoError(t, err)

	jobs, err := s.Select([]int{3, 1})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "c", jobs[0].Name)
	assert.Equal(t, "a", jobs[1].Name)

	_, err = s.Select([]int{1, 7})
	assert.True(t, errors.Is(err, errors.NotFound))
}
