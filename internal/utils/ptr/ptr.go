// Package ptr builds pointers to literal values, mostly for optional fields
// such as a unit's bedroom count.
package ptr

// To creates a pointer to the given value.
func To[T any](v T) *T {
	return &v
}
