package tagged

import (
	"reflect"
	"strings"
)

// A TagResolver derives the wire tag for a variant from its Go type.
//
// Resolvers must be pure and deterministic: the same type always yields the
// same tag. They must also be injective over the variant set passed to
// [NewRegistry]; two variants mapping to one tag fail registry construction
// with [ErrDuplicateTag].
//
// The registry applies resolvers to the variant's underlying (non-pointer)
// type, so registering a variant by value or by pointer produces the same tag.
type TagResolver func(reflect.Type) string

// SimpleName resolves a variant to its local type name, without package
// qualification: package shape's type Circle becomes "Circle".
//
// SimpleName is the conventional choice when all variants live in one package.
// Variants from different packages may share a local name; use [QualifiedName]
// or [TagMap] in that case.
func SimpleName(t reflect.Type) string {
	return t.Name()
}

// QualifiedName resolves a variant to its package-qualified type name, e.g.,
// "shape.Circle". The package path is reduced to its final element.
func QualifiedName(t reflect.Type) string {
	s := t.String()
	if t.Name() == "" {
		return s
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// TagMap builds a TagResolver from explicit per-variant tags, keyed by
// prototype values of each variant:
//
//	resolver := tagged.TagMap(map[string]any{
//		"circle": shape.Circle{},
//		"square": &shape.Square{},
//	})
//
// Types absent from the map resolve to "", which fails registry construction,
// so a variant missing from the map is caught when the registry is built
// rather than on first use.
func TagMap(tags map[string]any) TagResolver {
	byType := make(map[reflect.Type]string, len(tags))
	for tag, proto := range tags {
		byType[underlyingType(reflect.TypeOf(proto))] = tag
	}
	return func(t reflect.Type) string {
		return byType[t]
	}
}

// underlyingType reduces pointer types to their element type, so pointer and
// value forms of one variant share a single identity.
func underlyingType(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}
