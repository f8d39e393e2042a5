package cpbp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateCellsRestore(t *testing.T) {
	tr := NewTrail()
	b := tr.MakeStateBool(true)
	f := tr.MakeStateFloat(1.0)

	cp := tr.Checkpoint()
	b.SetValue(false)
	f.SetValue(0.25)
	require.False(t, b.Value())
	require.Equal(t, 0.25, f.Value())

	tr.RestoreTo(cp)
	assert.True(t, b.Value())
	assert.Equal(t, 1.0, f.Value())
}

func TestOneRecordPerCheckpointInterval(t *testing.T) {
	tr := NewTrail()
	f := tr.MakeStateFloat(1.0)

	cp := tr.Checkpoint()
	f.SetValue(0.5)
	f.SetValue(0.25)
	f.SetValue(0.125)
	// repeated writes within one interval record the prior value once
	assert.Equal(t, 1, tr.Len())

	tr.RestoreTo(cp)
	assert.Equal(t, 1.0, f.Value())
}

func TestNestedCheckpoints(t *testing.T) {
	tr := NewTrail()
	f := tr.MakeStateFloat(1.0)

	outer := tr.Checkpoint()
	f.SetValue(0.5)
	inner := tr.Checkpoint()
	f.SetValue(0.25)

	tr.RestoreTo(inner)
	require.Equal(t, 0.5, f.Value())
	tr.RestoreTo(outer)
	assert.Equal(t, 1.0, f.Value())
}

func TestBoolCellSkipsNoopWrites(t *testing.T) {
	tr := NewTrail()
	b := tr.MakeStateBool(true)
	tr.Checkpoint()
	b.SetValue(true)
	assert.Equal(t, 0, tr.Len())
}

func TestRestoreReplaysNewestFirst(t *testing.T) {
	tr := NewTrail()
	f := tr.MakeStateFloat(1.0)

	cp := tr.Checkpoint()
	f.SetValue(0.5)
	tr.Checkpoint()
	f.SetValue(0.25)
	tr.Checkpoint()
	f.SetValue(0.125)
	require.Equal(t, 3, tr.Len())

	tr.RestoreTo(cp)
	assert.Equal(t, 1.0, f.Value())
	assert.Equal(t, 0, tr.Len())
}
