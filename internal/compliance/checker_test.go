package compliance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/investor-screening/constants"
	"github.com/joseph-ayodele/investor-screening/internal/common"
)

type countingSource struct {
	entries []string
	err     error
	loads   int
}

func (s *countingSource) Load(context.Context) ([]string, error) {
	s.loads++
	return s.entries, s.err
}

func (s *countingSource) Describe() string { return "counting" }

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCheckerMatching(t *testing.T) {
	src := NewStaticSource("csv", []byte("name\nJane Doe\r\n  ACME Holdings  \n\n"), nil)
	c := NewChecker(src, quiet())

	tests := []struct {
		name string
		want constants.ComplianceStatus
	}{
		{" jane doe ", constants.ComplianceFlagged},
		{"JANE DOE", constants.ComplianceFlagged},
		{"acme holdings", constants.ComplianceFlagged},
		{"Jane Do", constants.ComplianceApproved},
		{"Jane Doe Jr", constants.ComplianceApproved},
		{"name", constants.ComplianceApproved},
		{"", constants.ComplianceApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Check(context.Background(), tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckerHeaderAlwaysDropped(t *testing.T) {
	c := NewChecker(NewStaticSource("csv", []byte("Jane Doe\nJohn Smith"), nil), quiet())

	got, err := c.Check(context.Background(), "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, constants.ComplianceApproved, got)

	got, err = c.Check(context.Background(), "john smith")
	require.NoError(t, err)
	assert.Equal(t, constants.ComplianceFlagged, got)
}

func TestCheckerLoadsEveryTime(t *testing.T) {
	src := &countingSource{entries: []string{"jane doe"}}
	c := NewChecker(src, quiet())

	for i := 0; i < 3; i++ {
		_, err := c.Check(context.Background(), "x")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, src.loads)
}

func TestCheckerUnavailablePolicies(t *testing.T) {
	src := &countingSource{err: errors.New("connection refused")}

	_, err := NewChecker(src, quiet()).Check(context.Background(), "Jane Doe")
	require.ErrorIs(t, err, common.ErrWatchlistUnavailable)
	assert.Equal(t, common.MsgWatchlistUnavailable, common.UserMessage(err))

	got, err := NewChecker(src, WithPolicy(PolicyFlag), quiet()).Check(context.Background(), "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, constants.ComplianceFlagged, got)

	got, err = NewChecker(src, WithPolicy(PolicyApprove), quiet()).Check(context.Background(), "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, constants.ComplianceApproved, got)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFail, p)

	p, err = ParsePolicy(" Flag ")
	require.NoError(t, err)
	assert.Equal(t, PolicyFlag, p)

	_, err = ParsePolicy("ignore")
	require.Error(t, err)
}
