package tagged_test

import (
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"github.com/sumwise/tagged"
)

// Event is a sum type with one singleton variant. Each test builds its own
// canonical instance so tests can mutate shared state independently.

type Event interface{ isEvent() }

type Started struct {
	Level int `json:"level"`
}

func (Started) isEvent() {}

// Stopped has exactly one logical instance per registry; its counter is
// shared mutable state restored by decode.
type Stopped struct {
	Content int `json:"content,omitempty"`
}

func (*Stopped) isEvent() {}

func newEventRegistry(t *testing.T, canonical *Stopped) *tagged.Registry[Event] {
	t.Helper()
	r, err := tagged.NewRegistry[Event](tagged.SimpleName,
		tagged.Of[Event](Started{}),
		tagged.Singleton[Event](canonical),
	)
	require.NoError(t, err)
	return r
}

func TestSingletonCanonicality(t *testing.T) {
	t.Parallel()

	canonical := &Stopped{}
	r := newEventRegistry(t, canonical)
	opts := tagged.JSONOptions(r, nil)

	b, err := json.Marshal(Event(canonical), opts)
	require.NoError(t, err)
	require.Equal(t, `{"tag":"Stopped"}`, string(b))

	// Decoding must yield the canonical shared instance itself,
	// not an equal copy.
	var got Event
	require.NoError(t, json.Unmarshal(b, &got, opts))
	require.Same(t, canonical, got)
}

func TestSingletonStateReset(t *testing.T) {
	t.Parallel()

	canonical := &Stopped{}
	r := newEventRegistry(t, canonical)
	opts := tagged.JSONOptions(r, nil)

	canonical.Content = 1
	b, err := json.Marshal(Event(canonical), opts)
	require.NoError(t, err)
	require.Equal(t, `{"tag":"Stopped","content":1}`, string(b))

	// Mutate the shared state, then decode the earlier record.
	// Decode means "restore shared state": the canonical instance
	// must reflect the serialized values again.
	canonical.Content = 2

	var got Event
	require.NoError(t, json.Unmarshal(b, &got, opts))
	require.Same(t, canonical, got)
	require.Equal(t, 1, canonical.Content)
}

func TestSingletonRoundTripInSlice(t *testing.T) {
	t.Parallel()

	canonical := &Stopped{}
	r := newEventRegistry(t, canonical)
	opts := tagged.JSONOptions(r, nil)

	in := []Event{Started{Level: 2}, canonical}
	b, err := json.Marshal(in, opts)
	require.NoError(t, err)
	require.Equal(t, `[{"tag":"Started","level":2},{"tag":"Stopped"}]`, string(b))

	var out []Event
	require.NoError(t, json.Unmarshal(b, &out, opts))
	require.Len(t, out, 2)
	require.Equal(t, Started{Level: 2}, out[0])
	require.Same(t, canonical, out[1])
}

// Session is a singleton whose shared state carries a validation constraint.
type Session struct {
	Owner string `json:"owner" validate:"required"`
}

func (*Session) isEvent() {}

func TestSingletonValidationFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	canonical := &Session{Owner: "alice"}
	r, err := tagged.NewRegistry[Event](tagged.SimpleName,
		tagged.Singleton[Event](canonical),
	)
	require.NoError(t, err)
	opts := tagged.JSONOptions(r, &tagged.Config{Validator: validator.New()})

	// The record fails validation, so the shared instance must keep its
	// current state rather than being left partially restored.
	var got Event
	err = json.Unmarshal([]byte(`{"tag":"Session","owner":""}`), &got, opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed validation")
	require.Equal(t, "alice", canonical.Owner)

	// A valid record restores shared state and returns the canonical
	// instance.
	require.NoError(t, json.Unmarshal([]byte(`{"tag":"Session","owner":"bob"}`), &got, opts))
	require.Same(t, canonical, got)
	require.Equal(t, "bob", canonical.Owner)
}

func TestSingletonEncodeCurrentState(t *testing.T) {
	t.Parallel()

	canonical := &Stopped{}
	r := newEventRegistry(t, canonical)
	opts := tagged.JSONOptions(r, nil)

	// Encoding a singleton serializes its shared state as of the call.
	canonical.Content = 7
	b, err := json.Marshal(Event(canonical), opts)
	require.NoError(t, err)
	require.Equal(t, `{"tag":"Stopped","content":7}`, string(b))
}
