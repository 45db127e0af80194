package tagged_test

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/sumwise/tagged"
)

// The variant set used in the examples: a sum type with two structured
// variants and one singleton.

type Part interface{ isPart() }

type PartA struct {
	Name string `json:"name"`
}

func (PartA) isPart() {}

type PartB struct {
	Name float64 `json:"name"`
	Age  int     `json:"age"`
}

func (PartB) isPart() {}

type PartC struct{}

func (*PartC) isPart() {}

// TheC is the canonical instance of the PartC variant.
var TheC = &PartC{}

func newPartRegistry() (*tagged.Registry[Part], error) {
	// Explicit tags: each variant gets a single-letter name on the wire.
	return tagged.NewRegistry[Part](
		tagged.TagMap(map[string]any{
			"A": PartA{},
			"B": PartB{},
			"C": TheC,
		}),
		tagged.Of[Part](PartA{}),
		tagged.Of[Part](PartB{}),
		tagged.Singleton[Part](TheC),
	)
}

func Example() {
	reg, err := newPartRegistry()
	if err != nil {
		panic(err)
	}
	opts := tagged.JSONOptions(reg, nil)

	for _, part := range []Part{
		PartA{Name: "Class A"},
		PartB{Name: 3.14, Age: 23},
		TheC,
	} {
		b, err := json.Marshal(part, opts)
		if err != nil {
			panic(err)
		}
		fmt.Println(string(b))

		var back Part
		if err := json.Unmarshal(b, &back, opts); err != nil {
			panic(err)
		}
		fmt.Printf("  decodes to %T, round-trips: %v\n", back, back == part)
	}

	// Output:
	// {"tag":"A","name":"Class A"}
	//   decodes to tagged_test.PartA, round-trips: true
	// {"tag":"B","name":3.14,"age":23}
	//   decodes to tagged_test.PartB, round-trips: true
	// {"tag":"C"}
	//   decodes to *tagged_test.PartC, round-trips: true
}

// Marshaling a slice of the sum type with the registry's options carries the
// element type, so every element is tagged.
func Example_sequence() {
	reg, err := newPartRegistry()
	if err != nil {
		panic(err)
	}
	opts := tagged.JSONOptions(reg, nil)

	parts := []Part{
		PartA{Name: "Class A"},
		PartB{Name: 3.14, Age: 23},
		TheC,
	}

	b, err := json.Marshal(parts, opts)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(b))

	var back []Part
	if err := json.Unmarshal(b, &back, opts); err != nil {
		panic(err)
	}
	fmt.Println(back[2] == TheC)

	// Output:
	// [{"tag":"A","name":"Class A"},{"tag":"B","name":3.14,"age":23},{"tag":"C"}]
	// true
}

// A marshal call that does not carry the registry's options has no tagged
// type to consult: the same values encode in their plain, untagged form, and
// the output cannot be decoded back into the sum type. Supply the registry's
// options explicitly wherever tagged output is required.
func Example_sequenceWithoutOptions() {
	parts := []Part{
		PartA{Name: "Class A"},
		PartB{Name: 3.14, Age: 23},
		TheC,
	}

	b, err := json.Marshal(parts)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(b))

	// Output:
	// [{"name":"Class A"},{"name":3.14,"age":23},{}]
}

// Decoding a singleton variant returns the canonical shared instance and
// restores its serialized state.
func ExampleSingleton() {
	reg, err := newPartRegistry()
	if err != nil {
		panic(err)
	}
	opts := tagged.JSONOptions(reg, nil)

	var back Part
	if err := json.Unmarshal([]byte(`{"tag":"C"}`), &back, opts); err != nil {
		panic(err)
	}
	fmt.Println(back == TheC)

	// Output:
	// true
}
