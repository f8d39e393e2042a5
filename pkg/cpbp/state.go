package cpbp

// Reversible state shared by the whole solver. The trail is an arena of
// undo records appended as cells and domains mutate; restoring a checkpoint
// truncates the arena, replaying records in reverse. Restore cost is
// proportional to the number of changes since the checkpoint, not to the
// size of the solver state.

// undoRecord reinstates one prior value when a checkpoint is restored.
type undoRecord interface {
	undo()
}

// Trail is the shared undo log. Domains, local beliefs, damping baselines
// and activity flags all record their previous values here, so a single
// RestoreTo rewinds filtering decisions and belief state together.
//
// Each Checkpoint starts a new interval: a cell records its prior value at
// most once per interval, however many times it is written within it.
type Trail struct {
	magic   uint64
	records []undoRecord
}

// NewTrail creates an empty trail.
func NewTrail() *Trail {
	return &Trail{magic: 1, records: make([]undoRecord, 0, 1024)}
}

// Checkpoint marks the current state and returns a token for RestoreTo.
func (t *Trail) Checkpoint() int {
	t.magic++
	return len(t.records)
}

// RestoreTo rewinds the trail to a checkpoint token obtained earlier,
// reinstating every value recorded since, newest first.
func (t *Trail) RestoreTo(cp int) {
	for i := len(t.records) - 1; i >= cp; i-- {
		t.records[i].undo()
		t.records[i] = nil
	}
	t.records = t.records[:cp]
	t.magic++
}

// Len reports the number of undo records currently on the trail.
func (t *Trail) Len() int { return len(t.records) }

func (t *Trail) push(r undoRecord) {
	t.records = append(t.records, r)
}

// StateBool is a reversible boolean cell bound to a trail.
type StateBool struct {
	t         *Trail
	v         bool
	lastMagic uint64
}

// MakeStateBool creates a reversible boolean cell with an initial value.
func (t *Trail) MakeStateBool(v bool) *StateBool {
	return &StateBool{t: t, v: v}
}

// Value reads the current value.
func (c *StateBool) Value() bool { return c.v }

// SetValue installs v, recording the previous value on the trail the first
// time the cell changes within the current checkpoint interval.
func (c *StateBool) SetValue(v bool) {
	if v == c.v {
		return
	}
	if c.lastMagic != c.t.magic {
		c.lastMagic = c.t.magic
		c.t.push(boolUndo{c: c, old: c.v})
	}
	c.v = v
}

type boolUndo struct {
	c   *StateBool
	old bool
}

func (u boolUndo) undo() { u.c.v = u.old }

// StateFloat is a reversible float64 cell bound to a trail.
type StateFloat struct {
	t         *Trail
	v         float64
	lastMagic uint64
}

// MakeStateFloat creates a reversible float cell with an initial value.
func (t *Trail) MakeStateFloat(v float64) *StateFloat {
	return &StateFloat{t: t, v: v}
}

// Value reads the current value.
func (c *StateFloat) Value() float64 { return c.v }

// SetValue installs v, recording the previous value on the trail the first
// time the cell changes within the current checkpoint interval.
func (c *StateFloat) SetValue(v float64) {
	if c.lastMagic != c.t.magic {
		c.lastMagic = c.t.magic
		c.t.push(floatUndo{c: c, old: c.v})
	}
	c.v = v
}

type floatUndo struct {
	c   *StateFloat
	old float64
}

func (u floatUndo) undo() { u.c.v = u.old }
