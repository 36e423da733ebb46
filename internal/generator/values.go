package generator

// GeneratedValue is the result of one value-engine call: either a concrete
// value (which may legitimately be nil for optional attributes) or a
// deferred marker meaning "resolve via link, not direct synthesis". The two
// cases are tagged so a missing value can never be mistaken for a pending
// link.
type GeneratedValue struct {
	deferred bool
	value    any
}

// Concrete wraps a directly synthesized value.
func Concrete(v any) GeneratedValue {
	return GeneratedValue{value: v}
}

// Deferred marks a value that must be produced by link resolution.
func Deferred() GeneratedValue {
	return GeneratedValue{deferred: true}
}

func (v GeneratedValue) IsDeferred() bool { return v.deferred }

// Value returns the concrete value; callers must check IsDeferred first.
func (v GeneratedValue) Value() any { return v.value }
