package draftingtui_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/x/exp/teatest"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/draftkit/pkg/drafting"
	"github.com/macropower/draftkit/pkg/draftingtui"
)

func TestProgressModel_Success(t *testing.T) {
	t.Parallel()

	m := draftingtui.NewProgressModel("Plotting")
	tm := teatest.NewTestModel(
		t, m,
		teatest.WithInitialTermSize(300, 100),
	)
	time.Sleep(100 * time.Millisecond)

	tm.Send(drafting.EventSetTotal(2))
	tm.Send(drafting.EventStarted("a.dwg"))
	teatest.WaitFor(
		t, tm.Output(),
		func(bts []byte) bool {
			return bytes.Contains(bts, []byte("a.dwg")) &&
				bytes.Contains(bts, []byte("░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░ 0/2"))
		},
	)

	tm.Send(drafting.EventFinished{Name: "a.dwg"})
	teatest.WaitFor(
		t, tm.Output(),
		func(bts []byte) bool {
			return bytes.Contains(bts, []byte("✓ a.dwg"))
		},
	)

	tm.Send(drafting.EventSkipped{Name: "notes.txt", Reason: "not a drawing file"})
	teatest.WaitFor(
		t, tm.Output(),
		func(bts []byte) bool {
			return bytes.Contains(bts, []byte("notes.txt (not a drawing file)"))
		},
	)

	tm.Send(drafting.EventDone{})

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(10*time.Second))
	got, ok := fm.(*draftingtui.ProgressModel)
	require.True(t, ok)

	require.NoError(t, got.Err())
	assert.Equal(t, []string{"a.dwg"}, got.Completed())
	assert.Equal(t, []string{"notes.txt"}, got.Skipped())
	assert.False(t, got.Failed("a.dwg"))
	assert.Contains(t, got.View(), "Done! Processed 1 of 2. Skipped 1.")
}

func TestProgressModel_Error(t *testing.T) {
	t.Parallel()

	m := draftingtui.NewProgressModel("Filling")
	tm := teatest.NewTestModel(
		t, m,
		teatest.WithInitialTermSize(300, 100),
	)
	time.Sleep(100 * time.Millisecond)

	tm.Send(drafting.EventSetTotal(2))
	tm.Send(drafting.EventStarted("CAT-A"))
	tm.Send(drafting.EventStarted("CAT-B"))
	teatest.WaitFor(
		t, tm.Output(),
		func(bts []byte) bool {
			return bytes.Contains(bts, []byte("CAT-B"))
		},
	)

	tm.Send(drafting.EventFinished{Name: "CAT-A"})
	tm.Send(drafting.EventFinished{Name: "CAT-B", Err: errors.New("too many rows")})
	teatest.WaitFor(
		t, tm.Output(),
		func(bts []byte) bool {
			return bytes.Contains(bts, []byte("✗ CAT-B"))
		},
	)

	err := errors.New("layout \"CAT-B\": too many rows")
	tm.Send(drafting.EventDone{Err: err})
	tm.Send(drafting.EventDone{Err: err})

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(10*time.Second))
	got, ok := fm.(*draftingtui.ProgressModel)
	require.True(t, ok)

	require.ErrorIs(t, got.Err(), err)
	assert.True(t, got.Failed("CAT-B"))
	assert.False(t, got.Failed("CAT-A"))
	assert.Contains(t, got.View(), "too many rows")
}

func TestGetErrorMessage(t *testing.T) {
	t.Parallel()

	var merr error
	merr = multierror.Append(merr, errors.New("a.dwg: no such file"))
	merr = multierror.Append(merr, errors.New("b.dwg: plot failed"))

	tests := map[string]struct {
		err   error
		total int
		want  []string
	}{
		"single error": {
			err:   errors.New("something went wrong"),
			total: 3,
			want:  []string{"something went wrong"},
		},
		"aggregated errors": {
			err:   merr,
			total: 3,
			want:  []string{"✗ a.dwg: no such file", "✗ b.dwg: plot failed", "2 of 3 failed"},
		},
		"total below failures": {
			err:  merr,
			want: []string{"2 of 2 failed"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := draftingtui.GetErrorMessage(tc.err, 80, tc.total)
			for _, w := range tc.want {
				assert.Contains(t, got, w)
			}
		})
	}
}
