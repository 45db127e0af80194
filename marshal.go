package tagged

import (
	"fmt"
	"reflect"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/go-playground/validator/v10"
)

const (
	// The default JSON object key for variant tags
	defaultTagKey = "tag"

	// The default JSON object key for non-object payloads
	defaultValueKey = "_value"
)

type Config struct {
	// TagKey is the record member holding the variant tag. Defaults to "tag".
	//
	// The stored tag is always the registry's derived tag. If a variant
	// carries the tag as one of its own fields, the field's encoding is
	// replaced by the registry's value, so the tag appears exactly once
	// and two tag sources can never disagree on the wire.
	TagKey string

	// ValueKey is the record member holding the payload of variants whose
	// own encoding is not a JSON object. Defaults to "_value".
	//
	// ValueKey is reserved on the wire: a record member under this key is
	// always read as a nested payload, so variants that encode to a JSON
	// object must not contain a member named ValueKey. Rename the key if
	// a variant needs it as a field name.
	ValueKey string

	// By default, if [MarshalFunc] attempts to encode a Go type that is
	// not in the registered variant set, it returns [ErrUnresolvableVariant].
	//
	// If ReplaceMissingTagFunc is defined, [MarshalFunc] will instead call
	// ReplaceMissingTagFunc with the unknown Go value and use the result as
	// the record's tag. Note that [UnmarshalFunc] will reject such records
	// unless the produced tag happens to be registered.
	ReplaceMissingTagFunc func(any) string

	// Validator, when set, validates every decoded struct variant before it
	// is returned to the caller. Validation failures surface as decode
	// errors.
	Validator *validator.Validate
}

func (cfg *Config) keys() (tagKey, valueKey string) {
	tagKey = cfg.TagKey
	if tagKey == "" {
		tagKey = defaultTagKey
	}
	valueKey = cfg.ValueKey
	if valueKey == "" {
		valueKey = defaultValueKey
	}
	return tagKey, valueKey
}

// JSONOptions combines [MarshalFunc] and [UnmarshalFunc] into a single
// [json.Options] that round-trips the registry's variant set.
func JSONOptions[T any](r *Registry[T], cfg *Config) json.Options {
	return json.JoinOptions(
		json.WithMarshalers(
			MarshalFunc(r, cfg),
		),
		json.WithUnmarshalers(
			UnmarshalFunc(r, cfg),
		),
	)
}

// MarshalFunc creates a [json.MarshalFuncV2] which intercepts marshaling for
// values of sum type T and encodes a record that [UnmarshalFunc] can decode
// back into the original variant.
//
// The record carries the registry's tag for the value's concrete type as its
// first member. Variants that encode to a JSON object have their members
// inlined beside the tag, in their encoded order; any other payload is nested
// under the value key.
//
// Tag emission is driven by the options carried on the marshal call: a call
// made without these marshalers encodes variants in their plain, untagged
// form. Callers that hold variants behind erased types must supply the
// registry's options explicitly to get tagged output.
func MarshalFunc[T any](r *Registry[T], cfg *Config) *json.Marshalers {
	if cfg == nil {
		cfg = &Config{}
	}
	tagKey, valueKey := cfg.keys()
	replaceMissingTagFunc := cfg.ReplaceMissingTagFunc

	// Hack:
	//
	// Our strategy for generically encoding a variant into a
	// record that includes its tag is to:
	//
	//  1. Intercept the request for Marshaling T
	//  2. Marshal T in the default manner
	//  3. Write a record containing the registry's tag for T
	//     plus the marshaled value from (2)
	//
	// However, when marshaling a Go type,
	// github.com/go-json-experiment/json looks for marshalers
	// that are registered either for that concrete type, or
	// for any interfaces which the Go type implements.
	//
	// This produces, by default, an infinite loop between
	// steps (1) and (2), where calling json.Marshal(t) will
	// re-invoke our marshalFunc
	//
	// To avoid this recursion, we set the skipNext toggle
	// below whenever we want a "default" marshaling of T. If
	// our MarshalFunc sees skipNext = true, it un-toggles
	// skipNext and returns [json.SkipFunc], which instructs
	// [json.Marshal] to skip our MarshalFunc.
	skipNext := false
	skipNextPtr := &skipNext

	marshalFunc := func(enc *jsontext.Encoder, t T, jsonopts json.Options) error {
		// If skipNextPtr is on, toggle it off and skip this
		// custom marshal function. `t` will be encoded according
		// to subsequent encoding rules; including the default
		// encoding if no other rules preempt it.
		// See [json.Marshal].
		if *skipNextPtr {
			*skipNextPtr = false
			return json.SkipFunc
		}

		// If T is an interface that captures *jsontext.Value
		// (e.g., fmt.Stringer), then our marshal func will
		// intercept attempts to marshal jsontext.Values.
		// We don't want to do that.
		if _, ok := any(t).(*jsontext.Value); ok {
			return json.SkipFunc
		}

		// Resolve the tag for the value's concrete type. The
		// variant set is closed, so a miss is a programmer
		// error unless the caller installed an escape hatch.
		tag, err := r.Tag(t)
		if err != nil {
			if replaceMissingTagFunc == nil {
				return err
			}
			tag = replaceMissingTagFunc(t)
		}

		// Marshal t by itself
		*skipNextPtr = true // avoid recursion in Marshal below
		b, err := json.Marshal(t, jsonopts)
		if err != nil {
			return fmt.Errorf("failed to marshal variant %q: %w", tag, err)
		}

		// Write the record: tag first, then the payload
		return writeTagged(enc, tagKey, tag, valueKey, jsontext.Value(b))
	}

	return json.MarshalFuncV2(marshalFunc)
}

// UnmarshalFunc creates a [json.UnmarshalFuncV2] which intercepts
// unmarshaling for values of sum type T.
//
// UnmarshalFunc reads the record's tag, resolves the matching variant in the
// registry, and decodes the remaining members into a fresh instance of that
// variant. Singleton variants instead decode into the canonical shared
// instance, which is then returned itself (see [Singleton]). An unregistered
// tag fails with [ErrUnknownVariant].
func UnmarshalFunc[T any](r *Registry[T], cfg *Config) *json.Unmarshalers {
	if cfg == nil {
		cfg = &Config{}
	}
	tagKey, valueKey := cfg.keys()
	validate := cfg.Validator

	// Hack:
	//
	// Our strategy for generically decoding a record into a
	// variant of T is to:
	//
	//  1. Intercept the request for Unmarshaling into T
	//  2. Split the record into its tag and its remainder
	//  3. Select a variant based on the tag from (2)
	//  4. Unmarshal the remainder from (2) into the variant
	//
	// However, when unmarshaling a Go type,
	// github.com/go-json-experiment/json looks for marshalers
	// that are registered either for that concrete type, or
	// for any interfaces which the Go type implements.
	//
	// This produces, by default, an infinite loop between
	// steps (1) and (4), where calling json.Unmarshal(t) will
	// re-invoke our unmarshalFunc
	//
	// To avoid this recursion, we set the skipNext toggle
	// below whenever we want a "default" unmarshaling of T.
	// If our UnmarshalFunc sees skipNext = true, it un-toggles
	// skipNext and returns [json.SkipFunc], which instructs
	// [json.Unmarshal] to skip our UnmarshalFunc.
	skipNext := false
	skipNextPtr := &skipNext

	unmarshalFunc := func(dec *jsontext.Decoder, ptr *T, jsonopts json.Options) error {
		// If skipNextPtr is on, toggle it off and skip this
		// custom unmarshal function. The input will be decoded
		// according to subsequent decoding rules; including the
		// default decoding if no other rules preempt it.
		// See [json.Unmarshal].
		if *skipNextPtr {
			*skipNextPtr = false
			return json.SkipFunc
		}

		// Read the whole record, then split out the tag and
		// the remainder that the variant's field codec should
		// consume.
		var record jsontext.Value
		if err := json.UnmarshalDecode(dec, &record, jsonopts); err != nil {
			return fmt.Errorf("failed to read variant record: %w", err)
		}
		tag, rest, err := splitRecord(record, tagKey, valueKey)
		if err != nil {
			return err
		}

		ent, ok := r.lookup(tag)
		if !ok {
			return ErrUnknownVariant{tag: tag, sumType: r.sumType}
		}

		// Singleton variants route through the singleton guard:
		// the remainder is staged, validated, and applied to the
		// canonical shared instance, and the canonical instance
		// itself is returned.
		if ent.singleton {
			opt, err := decodeSingleton(ent, rest, validate, skipNextPtr, jsonopts)
			if err != nil {
				return err
			}
			*ptr = opt
			return nil
		}

		// Construct a fresh instance of the resolved variant
		// and unmarshal the remainder into it
		opt := ent.zero()
		optPtr := &opt

		if len(rest) != 0 {
			*skipNextPtr = true // avoid recursion in Unmarshal below
			if err := json.Unmarshal(rest, optPtr, jsonopts); err != nil {
				return fmt.Errorf("failed to unmarshal record into variant %q: %w", tag, err)
			}
		}

		if err := validateVariant(validate, opt); err != nil {
			return fmt.Errorf("decoded variant %q failed validation: %w", tag, err)
		}

		*ptr = opt
		return nil
	}
	return json.UnmarshalFuncV2(unmarshalFunc)
}

// zero constructs a fresh zero instance of the variant, as a pointer or a
// value to match how the variant's prototype was registered.
func (v *variant[T]) zero() T {
	p := reflect.New(v.typ)
	if v.ptr {
		return p.Interface().(T)
	}
	return p.Elem().Interface().(T)
}

// validateVariant runs the optional post-decode validation hook. Only struct
// variants are validated; other kinds have no meaning to the validator and
// are skipped.
func validateVariant(validate *validator.Validate, v any) error {
	if validate == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return validate.Struct(rv.Interface())
}
