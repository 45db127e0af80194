package tagged

import (
	"fmt"
	"reflect"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/go-playground/validator/v10"
)

// decodeSingleton decodes a record remainder for a singleton variant.
//
// "Deserialize" for a singleton means "restore shared state", not "create an
// unrelated copy": the remainder's members are assigned onto the canonical
// shared instance, and the canonical instance itself is returned. Callers with
// concurrent readers of the shared instance must synchronize around decode;
// the codec does not lock the instance's fields.
//
// The restore is staged. The canonical instance's current state is copied
// into a staging instance, the remainder is unmarshaled into that copy, and
// the optional validation hook runs against it. Only then is the staged state
// assigned back onto the canonical instance, so a malformed or invalid record
// never leaves shared state partially restored.
func decodeSingleton[T any](ent *variant[T], rest jsontext.Value, validate *validator.Validate, skipNext *bool, jsonopts json.Options) (T, error) {
	var zero T

	canonical := reflect.ValueOf(ent.canonical)
	if canonical.Kind() != reflect.Ptr || canonical.IsNil() {
		// The registry checks this at build time; a miss here
		// means the registry and runtime state diverged.
		return zero, ErrMissingSingleton{tag: ent.tag, sumType: typeName[T]()}
	}

	if len(rest) == 0 {
		if err := validateVariant(validate, ent.canonical); err != nil {
			return zero, fmt.Errorf("decoded variant %q failed validation: %w", ent.tag, err)
		}
		return ent.canonical, nil
	}

	// Stage the restore on a copy of the current shared state.
	staging := reflect.New(canonical.Type().Elem())
	staging.Elem().Set(canonical.Elem())

	opt := staging.Interface().(T)
	optPtr := &opt

	*skipNext = true // avoid recursion in Unmarshal below
	if err := json.Unmarshal(rest, optPtr, jsonopts); err != nil {
		return zero, fmt.Errorf("failed to restore singleton variant %q: %w", ent.tag, err)
	}

	got := reflect.ValueOf(opt)
	if got.Kind() != reflect.Ptr || got.IsNil() {
		return zero, ErrMissingSingleton{tag: ent.tag, sumType: typeName[T]()}
	}
	if got.Type() != canonical.Type() {
		return zero, fmt.Errorf("restored singleton variant %q has type %s, want %s", ent.tag, got.Type(), canonical.Type())
	}
	if err := validateVariant(validate, opt); err != nil {
		return zero, fmt.Errorf("decoded variant %q failed validation: %w", ent.tag, err)
	}

	// Apply the staged state to the canonical instance.
	canonical.Elem().Set(got.Elem())

	return ent.canonical, nil
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
