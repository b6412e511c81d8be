package models

// Opt is a value that is either present or absent.
//
// The zero value is absent.
type Opt[T any] struct {
	value T
	ok    bool
}

// Some returns a present Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, ok: true}
}

// None returns an absent Opt.
func None[T any]() Opt[T] {
	return Opt[T]{}
}

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.ok
}

// Present reports whether o holds a value.
func (o Opt[T]) Present() bool {
	return o.ok
}

// Or returns the value if present, otherwise def.
func (o Opt[T]) Or(def T) T {
	if o.ok {
		return o.value
	}
	return def
}
