package tagged

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// A Case describes one variant of a sum type T. Build cases with [Of] for
// structured variants and [Singleton] for variants with a single canonical
// instance.
type Case[T any] struct {
	prototype T
	singleton bool
}

// Of declares a structured variant from a prototype value. The prototype's
// concrete type identifies the variant; its field values are ignored.
//
// If the prototype is a pointer, decoded instances are returned as pointers
// to freshly constructed values. If it is a value, decoded instances are
// returned by value.
func Of[T any](prototype T) Case[T] {
	return Case[T]{prototype: prototype}
}

// Singleton declares a singleton variant from its canonical instance, which
// must be a non-nil pointer. Decoding this variant always returns canonical
// itself, never a new instance; any members present in the record are
// unmarshaled directly into canonical, restoring its shared state.
func Singleton[T any](canonical T) Case[T] {
	return Case[T]{prototype: canonical, singleton: true}
}

// variant is one entry in a registry's tag <-> type table.
type variant[T any] struct {
	tag       string
	typ       reflect.Type // underlying (non-pointer) type
	ptr       bool         // prototype was registered as a pointer
	singleton bool
	canonical T // set only for singletons
}

// A Registry holds the bijective mapping between wire tags and the variants
// of one sum type T, where T is an interface and every variant is a concrete
// type implementing it.
//
// The variant set is closed: it is fixed when the registry is built and cannot
// grow afterward. A built registry is immutable and safe for concurrent use.
type Registry[T any] struct {
	sumType string
	byTag   map[string]*variant[T]
	byType  map[reflect.Type]*variant[T]
}

// NewRegistry builds the registry for sum type T from its full variant set,
// deriving each variant's tag with resolver.
//
// NewRegistry fails with [ErrNotASumType] if T is not an interface type, if
// resolver is nil, if cases is empty, if resolver yields no tag for a
// variant, or if one variant type appears in the case list more than once.
// It fails with [ErrDuplicateTag] if two variants resolve to the same
// tag, and with [ErrMissingSingleton] if a [Singleton] case's canonical
// instance is not a usable non-nil pointer. All of these are detected here, at
// build time, never deferred to a later lookup.
func NewRegistry[T any](resolver TagResolver, cases ...Case[T]) (*Registry[T], error) {
	sumType := reflect.TypeOf((*T)(nil)).Elem()
	name := sumType.String()

	if sumType.Kind() != reflect.Interface {
		return nil, ErrNotASumType{typ: name, reason: "type parameter is not an interface"}
	}
	if resolver == nil {
		return nil, ErrNotASumType{typ: name, reason: "no tag resolver provided"}
	}
	if len(cases) == 0 {
		return nil, ErrNotASumType{typ: name, reason: "variant set is empty"}
	}

	r := &Registry[T]{
		sumType: name,
		byTag:   make(map[string]*variant[T], len(cases)),
		byType:  make(map[reflect.Type]*variant[T], len(cases)),
	}

	for _, c := range cases {
		rt := reflect.TypeOf(c.prototype)
		if rt == nil {
			return nil, ErrNotASumType{typ: name, reason: "variant prototype is a nil interface value"}
		}

		v := &variant[T]{
			typ:       underlyingType(rt),
			ptr:       rt.Kind() == reflect.Ptr,
			singleton: c.singleton,
		}

		v.tag = resolver(v.typ)
		if v.tag == "" {
			return nil, ErrNotASumType{
				typ:    name,
				reason: fmt.Sprintf("resolver produced no tag for variant %s", v.typ),
			}
		}
		if _, dup := r.byTag[v.tag]; dup {
			return nil, ErrDuplicateTag{tag: v.tag, sumType: name}
		}
		if _, dup := r.byType[v.typ]; dup {
			return nil, ErrNotASumType{
				typ:    name,
				reason: fmt.Sprintf("variant %s registered more than once", v.typ),
			}
		}

		if c.singleton {
			if rt.Kind() != reflect.Ptr || reflect.ValueOf(c.prototype).IsNil() {
				return nil, ErrMissingSingleton{tag: v.tag, sumType: name}
			}
			v.canonical = c.prototype
		}

		r.byTag[v.tag] = v
		r.byType[v.typ] = v
	}

	return r, nil
}

// Tag resolves the wire tag for a value of the sum type. It is defined for
// every registered variant, whether the value was constructed as a pointer or
// by value; an unregistered concrete type fails with [ErrUnresolvableVariant].
func (r *Registry[T]) Tag(v T) (string, error) {
	rt := reflect.TypeOf(v)
	if ent, ok := r.byType[underlyingType(rt)]; ok {
		return ent.tag, nil
	}
	return "", ErrUnresolvableVariant{goType: fmt.Sprintf("%T", v), sumType: r.sumType}
}

// Tags returns the registered tag set in lexicographic order.
func (r *Registry[T]) Tags() []string {
	tags := make([]string, 0, len(r.byTag))
	for tag := range r.byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Variant returns the Go type registered under a wire tag, reduced to its
// underlying (non-pointer) form, and reports whether the tag is in the set.
func (r *Registry[T]) Variant(tag string) (reflect.Type, bool) {
	ent, ok := r.byTag[tag]
	if !ok {
		return nil, false
	}
	return ent.typ, true
}

// lookup returns the variant entry for a wire tag.
func (r *Registry[T]) lookup(tag string) (*variant[T], bool) {
	ent, ok := r.byTag[tag]
	return ent, ok
}

// A Lazy defers registry construction until first use. The first call to Get
// performs the build; every later and concurrent caller observes that same
// result, error included. There is no rebuild on failure: a registry that
// fails to build is misconfigured, and retrying the same inputs cannot
// succeed.
type Lazy[T any] struct {
	build func() (*Registry[T], error)

	once sync.Once
	r    *Registry[T]
	err  error
}

// NewLazy wraps a registry constructor for lazy, once-only evaluation:
//
//	shapes := tagged.NewLazy(func() (*tagged.Registry[Shape], error) {
//		return tagged.NewRegistry[Shape](tagged.SimpleName,
//			tagged.Of[Shape](Circle{}),
//			tagged.Of[Shape](Square{}),
//		)
//	})
func NewLazy[T any](build func() (*Registry[T], error)) *Lazy[T] {
	return &Lazy[T]{build: build}
}

// Get returns the registry, building it on first call.
func (l *Lazy[T]) Get() (*Registry[T], error) {
	l.once.Do(func() {
		l.r, l.err = l.build()
	})
	return l.r, l.err
}
