package git

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// RunnerMock mocks command execution.
type RunnerMock struct {
	mock.Mock
}

func (m *RunnerMock) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	margs := m.Called(ctx, dir, name, args)
	var out []byte
	// To allow nil values
	if b, ok := margs.Get(0).([]byte); ok {
		out = b
	}
	return out, margs.Error(1)
}

func TestDescriber_LatestTag(t *testing.T) {
	runner := new(RunnerMock)
	runner.On("Run", mock.Anything, "/repo", "git", []string{"describe", "--abbrev=0", "--tags", "--match=v*.*.*"}).
		Return([]byte("v1.2.3\n"), nil)

	tag, err := NewDescriber("/repo", "", runner).LatestTag(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", tag)
	runner.AssertExpectations(t)
}

func TestDescriber_CustomMatch(t *testing.T) {
	runner := new(RunnerMock)
	runner.On("Run", mock.Anything, "", "git", []string{"describe", "--abbrev=0", "--tags", "--match=release-v*"}).
		Return([]byte("release-v2.0.0"), nil)

	d := NewDescriber("", "release-v*", runner)
	tag, err := d.LatestTag(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "release-v2.0.0", tag)
	runner.AssertExpectations(t)
}

func TestDescriber_Errors(t *testing.T) {
	cases := []struct {
		Name  string
		Out   []byte
		Err   error
		NoTag bool
	}{
		{"no names", nil, errors.New("exit status 128: fatal: No names found, cannot describe anything."), true},
		{"no tags describe", nil, errors.New("exit status 128: fatal: No tags can describe 'abc'."), true},
		{"empty output", []byte("  \n"), nil, true},
		{"not a repository", nil, errors.New("exit status 128: fatal: not a git repository"), false},
	}

	for _, v := range cases {
		t.Run(v.Name, func(t *testing.T) {
			runner := new(RunnerMock)
			runner.On("Run", mock.Anything, mock.Anything, "git", mock.Anything).Return(v.Out, v.Err)

			_, err := NewDescriber("", "", runner).LatestTag(context.Background())
			require.Error(t, err)
			assert.Equal(t, v.NoTag, errors.Is(err, ErrNoTag), "unexpected error %v", err)
		})
	}
}

func TestNewDescriber_Defaults(t *testing.T) {
	d := NewDescriber("", "", nil)
	assert.Equal(t, DefaultTagMatch, d.Match)
	assert.IsType(t, ExecRunner{}, d.runner)
}
