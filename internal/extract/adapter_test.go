package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/investor-screening/internal/common"
)

type fakeEngine struct {
	pages []string
	err   error
	calls int
}

func (f *fakeEngine) ExtractPages(context.Context, []byte) ([]string, error) {
	f.calls++
	return f.pages, f.err
}

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) PageCount([]byte) (int, error) { return f.n, f.err }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAdapterExtract(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		err      error
		wantText string
		wantErr  bool
	}{
		{
			name:     "joins pages with blank line",
			pages:    []string{"Investor: Jane Doe", "Amount: $50,000 USD"},
			wantText: "Investor: Jane Doe\n\nAmount: $50,000 USD",
		},
		{
			name:    "short text after trimming",
			pages:   []string{"   Jane Doe   ", "\n\n"},
			wantErr: true,
		},
		{
			name:     "exactly twenty characters",
			pages:    []string{"  abcdefghijklmnopqrst  "},
			wantText: "  abcdefghijklmnopqrst  ",
		},
		{
			name:    "nineteen runes of multibyte text",
			pages:   []string{strings.Repeat("é", 19)},
			wantErr: true,
		},
		{
			name:    "no pages",
			pages:   nil,
			wantErr: true,
		},
		{
			name:    "engine error",
			err:     errors.New("corrupt xref"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdapter(&fakeEngine{pages: tt.pages, err: tt.err}, WithLogger(quietLogger()))
			res, err := a.Extract(context.Background(), []byte("%PDF"))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInsufficientContent)
				assert.Equal(t, common.MsgInsufficientContent, common.UserMessage(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, res.Text)
			assert.Equal(t, len(tt.pages), res.Pages)
			assert.Equal(t, "custom", res.Method)
		})
	}
}

func TestAdapterInspector(t *testing.T) {
	engine := &fakeEngine{pages: []string{"plenty of readable text in this investor letter"}}

	t.Run("inspection failure skips engine", func(t *testing.T) {
		a := NewAdapter(engine, WithInspector(fakeCounter{err: errors.New("not a pdf")}), WithLogger(quietLogger()))
		_, err := a.Extract(context.Background(), []byte("junk"))
		require.ErrorIs(t, err, common.ErrInsufficientContent)
		assert.Equal(t, 0, engine.calls)
	})

	t.Run("page limit", func(t *testing.T) {
		a := NewAdapter(engine, WithInspector(fakeCounter{n: 12}), WithMaxPages(10), WithLogger(quietLogger()))
		_, err := a.Extract(context.Background(), []byte("%PDF"))
		require.ErrorIs(t, err, common.ErrInsufficientContent)
	})

	t.Run("within limit", func(t *testing.T) {
		a := NewAdapter(engine, WithInspector(fakeCounter{n: 3}), WithMaxPages(10), WithLogger(quietLogger()))
		res, err := a.Extract(context.Background(), []byte("%PDF"))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Pages)
	})
}

func TestAdapterMinChars(t *testing.T) {
	a := NewAdapter(&fakeEngine{pages: []string{"short but ok"}}, WithMinChars(5), WithLogger(quietLogger()))
	_, err := a.Extract(context.Background(), nil)
	require.NoError(t, err)
}

func TestAdapterInterruptedIsUnknownFailure(t *testing.T) {
	t.Run("engine deadline", func(t *testing.T) {
		a := NewAdapter(&fakeEngine{err: context.DeadlineExceeded}, WithLogger(quietLogger()))
		_, err := a.Extract(context.Background(), []byte("%PDF"))
		require.ErrorIs(t, err, common.ErrUnknownFailure)
		assert.NotErrorIs(t, err, common.ErrInsufficientContent)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		a := NewAdapter(&fakeEngine{err: errors.New("signal: killed")}, WithLogger(quietLogger()))
		_, err := a.Extract(ctx, []byte("%PDF"))
		require.ErrorIs(t, err, common.ErrUnknownFailure)
		assert.Equal(t, common.MsgUnknownFailure, common.UserMessage(err))
	})
}
