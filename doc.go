// Package [tagged] round-trips closed sets of variants (sum types) through
// JSON using the Go JSON V2 experiment ([github.com/go-json-experiment/json]).
//
// A sum type is modeled as a Go interface whose full set of implementing
// variants is known up front. By default, marshaling and unmarshaling such an
// interface value will fail:
//
//	var s Shape = Circle{Radius: 10}
//	b, _ := json.Marshal(s) // b == []byte(`{"radius":10}`)
//
//	var s2 Shape
//	err := json.Unmarshal(b, &s2)
//	// err: cannot derive concrete type for non-empty interface
//
// [NewRegistry] enumerates the variant set once and derives a stable string
// tag for every variant with a caller-supplied [TagResolver]. [MarshalFunc]
// and [UnmarshalFunc] then encode matching Go values as records carrying the
// tag, which enables round-trip marshaling and unmarshaling:
//
//	reg, _ := tagged.NewRegistry[Shape](tagged.SimpleName,
//		tagged.Of[Shape](Circle{}),
//		tagged.Of[Shape](Square{}),
//	)
//	opts := tagged.JSONOptions(reg, nil)
//
//	var s Shape = Circle{Radius: 10}
//	b, _ := json.Marshal(s, opts)
//	// b == []byte(`{"tag":"Circle","radius":10}`)
//
//	var s2 Shape
//	_ = json.Unmarshal(b, &s2, opts)
//	// s2 == Circle{Radius: 10}
//
// The registry is built eagerly and validated up front: two variants
// resolving to the same tag fail construction with [ErrDuplicateTag], and a
// type parameter that is not an interface fails with [ErrNotASumType].
// Decoding a record whose tag is not in the set fails with
// [ErrUnknownVariant]; encoding a value whose concrete type was never
// registered fails with [ErrUnresolvableVariant].
//
// # Record shape
//
// A variant that encodes to a JSON object has its members inlined beside the
// tag, in their encoded order:
//
//	{
//	  "tag": "Circle",
//	  "radius": 10
//	}
//
// A variant that encodes to anything else keeps its encoding under the value
// key:
//
//	{
//	  "tag": "Hash",
//	  "_value": 5
//	}
//
// Both keys can be renamed via [Config]. The value key is reserved on the
// wire, so object variants must not use it as a field name; the tag key is
// owned by the codec. If a variant carries its tag as a real struct field,
// the codec drops that member and writes the registry's derived tag in its
// place, so the tag appears exactly once on the wire.
//
// # Singleton variants
//
// A variant registered with [Singleton] has exactly one canonical instance
// per process. Decoding such a variant never constructs a new value: the
// record's members are assigned onto the canonical instance, restoring its
// shared state, and the canonical instance itself is returned.
//
//	var Off = &PowerOff{}   // canonical instance
//
//	reg, _ := tagged.NewRegistry[Event](tagged.SimpleName,
//		tagged.Of[Event](PowerOn{}),
//		tagged.Singleton[Event](Off),
//	)
//
//	var e Event
//	_ = json.Unmarshal([]byte(`{"tag":"PowerOff"}`), &e, tagged.JSONOptions(reg, nil))
//	// e == Off (the same pointer, not a copy)
//
// Concurrent encode or decode of one singleton variant mutates shared state
// and must be synchronized by the caller.
//
// # Tags and erased types
//
// Tag emission is driven by the options carried on the call. Marshaling a
// []Shape with the registry's options tags every element; marshaling the same
// values through a call that does not carry the options produces plain,
// untagged encodings. Supply the registry's options explicitly wherever
// tagged output is required.
//
// [github.com/go-json-experiment/json]: https://github.com/go-json-experiment/json
package tagged
