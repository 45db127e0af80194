package tagged

import "fmt"

// ErrNotASumType is the error returned by NewRegistry when the type parameter
// or the case list cannot form a closed variant set
type ErrNotASumType struct {
	typ    string
	reason string
}

func (e ErrNotASumType) Error() string {
	return fmt.Sprintf("%s is not a usable sum type: %s", e.typ, e.reason)
}

// ErrDuplicateTag is the error returned by NewRegistry when two distinct
// variants of one sum type resolve to the same tag
type ErrDuplicateTag struct {
	tag     string
	sumType string
}

func (e ErrDuplicateTag) Error() string {
	return fmt.Sprintf("duplicate tag %q in variant set of %s", e.tag, e.sumType)
}

// ErrUnknownVariant is the error returned by UnmarshalFunc when a record
// carries a tag that is not in the registered variant set
type ErrUnknownVariant struct {
	tag     string
	sumType string
}

func (e ErrUnknownVariant) Error() string {
	return fmt.Sprintf("unknown variant tag %q for sum type %s", e.tag, e.sumType)
}

// Tag returns the unrecognized tag value
func (e ErrUnknownVariant) Tag() string { return e.tag }

// ErrUnresolvableVariant is the error returned by MarshalFunc when it
// encounters a Go value whose type is not in the registered variant set.
// This indicates a programmer error: the variant set is closed, so every
// constructible value of the sum type must have been registered.
type ErrUnresolvableVariant struct {
	goType  string
	sumType string
}

func (e ErrUnresolvableVariant) Error() string {
	return fmt.Sprintf("Go type %s is not a registered variant of sum type %s", e.goType, e.sumType)
}

// ErrMissingSingleton is the error returned when a variant registered as a
// singleton has no locatable canonical instance
type ErrMissingSingleton struct {
	tag     string
	sumType string
}

func (e ErrMissingSingleton) Error() string {
	return fmt.Sprintf("no canonical instance for singleton variant %q of sum type %s", e.tag, e.sumType)
}
