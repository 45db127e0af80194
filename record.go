package tagged

import (
	"bytes"
	"fmt"

	"github.com/go-json-experiment/json/jsontext"
)

// writeTagged emits one variant record to enc: the tag member first, followed
// by the variant's own encoding. Object payloads are inlined member by member
// in their encoded order; any other payload is nested under valueKey.
//
// If the payload already contains a member named tagKey (a variant that
// carries its tag as a real field), that member is dropped and the registry's
// derived tag is written in its place, so the tag appears exactly once and
// always holds the registry's value.
func writeTagged(enc *jsontext.Encoder, tagKey, tag, valueKey string, payload jsontext.Value) error {
	if err := enc.WriteToken(jsontext.ObjectStart); err != nil {
		return fmt.Errorf("failed to write object start token: %w", err)
	}
	if err := enc.WriteToken(jsontext.String(tagKey)); err != nil {
		return fmt.Errorf("failed to write tag key token %s: %w", tagKey, err)
	}
	if err := enc.WriteToken(jsontext.String(tag)); err != nil {
		return fmt.Errorf("failed to write tag value token %s: %w", tag, err)
	}

	switch {
	case payload.Kind() == '{':
		// Inline the payload's members, preserving their encoded order.
		dec := jsontext.NewDecoder(bytes.NewReader(payload))
		if _, err := dec.ReadToken(); err != nil {
			return fmt.Errorf("failed to read payload object start: %w", err)
		}
		for dec.PeekKind() != '}' {
			tok, err := dec.ReadToken()
			if err != nil {
				return fmt.Errorf("failed to read payload member name: %w", err)
			}
			name := tok.String()

			v, err := dec.ReadValue()
			if err != nil {
				return fmt.Errorf("failed to read payload member %s: %w", name, err)
			}
			if name == tagKey {
				// The variant carries the tag as one of its own fields.
				// The registry's tag was already written; skip this one.
				continue
			}
			if err := enc.WriteToken(jsontext.String(name)); err != nil {
				return fmt.Errorf("failed to write member name token %s: %w", name, err)
			}
			if err := enc.WriteValue(v); err != nil {
				return fmt.Errorf("failed to write member %s: %w", name, err)
			}
		}

	case len(payload) > 0:
		// Non-object payloads keep their encoding under valueKey.
		if err := enc.WriteToken(jsontext.String(valueKey)); err != nil {
			return fmt.Errorf("failed to write value key token %s: %w", valueKey, err)
		}
		if err := enc.WriteValue(payload); err != nil {
			return fmt.Errorf("failed to write nested value: %w", err)
		}
	}

	if err := enc.WriteToken(jsontext.ObjectEnd); err != nil {
		return fmt.Errorf("failed to write object end token: %w", err)
	}
	return nil
}

// splitRecord splits a variant record into its tag and the remainder that the
// variant's field codec should consume. Member order is preserved.
//
// The remainder is the record minus the tag member, or the nested value when
// the record uses valueKey. A record with no members beyond the tag returns a
// nil remainder. A record mixing a valueKey member with inline members is
// malformed.
func splitRecord(record jsontext.Value, tagKey, valueKey string) (string, jsontext.Value, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(record))

	if k := dec.PeekKind(); k != '{' {
		return "", nil, fmt.Errorf("expected object start, but encountered %v", k)
	}
	if _, err := dec.ReadToken(); err != nil {
		return "", nil, fmt.Errorf("failed to read record object start: %w", err)
	}

	var (
		tag       string
		sawTag    bool
		nested    jsontext.Value
		sawNested bool
		inline    int

		buf = &bytes.Buffer{}
		enc = jsontext.NewEncoder(buf)
	)
	if err := enc.WriteToken(jsontext.ObjectStart); err != nil {
		return "", nil, fmt.Errorf("failed to buffer object start token: %w", err)
	}

	for dec.PeekKind() != '}' {
		tok, err := dec.ReadToken()
		if err != nil {
			return "", nil, fmt.Errorf("failed to read record member name: %w", err)
		}
		name := tok.String()

		switch name {
		case tagKey:
			vt, err := dec.ReadToken()
			if err != nil {
				return "", nil, fmt.Errorf("failed to read tag value: %w", err)
			}
			if vt.Kind() != '"' {
				return "", nil, fmt.Errorf(`value for tag key %q must be a string (got %v)`, tagKey, vt.Kind())
			}
			tag = vt.String()
			sawTag = true

		case valueKey:
			v, err := dec.ReadValue()
			if err != nil {
				return "", nil, fmt.Errorf("failed to read nested value: %w", err)
			}
			// The decoder may reuse its buffer on the next read.
			nested = jsontext.Value(bytes.Clone(v))
			sawNested = true

		default:
			v, err := dec.ReadValue()
			if err != nil {
				return "", nil, fmt.Errorf("failed to read record member %s: %w", name, err)
			}
			if err := enc.WriteToken(jsontext.String(name)); err != nil {
				return "", nil, fmt.Errorf("failed to buffer member name token %s: %w", name, err)
			}
			if err := enc.WriteValue(v); err != nil {
				return "", nil, fmt.Errorf("failed to buffer member %s: %w", name, err)
			}
			inline++
		}
	}

	if !sawTag {
		return "", nil, fmt.Errorf("missing tag key %q in record", tagKey)
	}

	switch {
	case sawNested && inline > 0:
		return "", nil, fmt.Errorf("found both nested and inline members")
	case sawNested:
		return tag, nested, nil
	case inline == 0:
		return tag, nil, nil
	}

	if err := enc.WriteToken(jsontext.ObjectEnd); err != nil {
		return "", nil, fmt.Errorf("failed to buffer object end token: %w", err)
	}
	return tag, jsontext.Value(bytes.TrimSpace(buf.Bytes())), nil
}
