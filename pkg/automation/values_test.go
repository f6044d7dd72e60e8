package automation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/draftkit/pkg/automation"
)

func TestToPoint(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in      any
		want    automation.Point
		wantErr bool
	}{
		"point": {
			in:   automation.Point{X: 1, Y: 2, Z: 3},
			want: automation.Point{X: 1, Y: 2, Z: 3},
		},
		"three floats": {
			in:   []any{10.5, 20.0, 0.0},
			want: automation.Point{X: 10.5, Y: 20},
		},
		"two ints": {
			in:   []any{int32(4), int16(5)},
			want: automation.Point{X: 4, Y: 5},
		},
		"float slice": {
			in:   []float64{1, 2},
			want: automation.Point{X: 1, Y: 2},
		},
		"too many coordinates": {
			in:      []any{1.0, 2.0, 3.0, 4.0},
			wantErr: true,
		},
		"not numeric": {
			in:      []any{"a", "b"},
			wantErr: true,
		},
		"scalar": {
			in:      1.0,
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := automation.ToPoint(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, automation.ErrUnexpectedType)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScalarConversions(t *testing.T) {
	t.Parallel()

	i, err := automation.ToInt(int64(7))
	require.NoError(t, err)
	assert.Equal(t, 7, i)

	i, err = automation.ToInt(3.0)
	require.NoError(t, err)
	assert.Equal(t, 3, i)

	_, err = automation.ToInt(3.5)
	require.ErrorIs(t, err, automation.ErrUnexpectedType)

	b, err := automation.ToBool(int16(-1))
	require.NoError(t, err)
	assert.True(t, b)

	_, err = automation.ToBool("yes")
	require.ErrorIs(t, err, automation.ErrUnexpectedType)

	s, err := automation.ToString(nil)
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = automation.ToString(12)
	require.ErrorIs(t, err, automation.ErrUnexpectedType)

	f, err := automation.ToFloat(uint8(9))
	require.NoError(t, err)
	assert.InDelta(t, 9.0, f, 0)
}
