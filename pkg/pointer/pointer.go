// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

/*
Package pointer provides utilities for working with pointers in Go.

Optional fields in PATCH payloads are modeled as pointers; these helpers
remove the boilerplate of taking addresses of literals and dereferencing
with a fallback.
*/
package pointer

// To returns a pointer to the given value.
func To[T any](value T) *T {
	return &value
}

// Deref returns the value behind the pointer, or the fallback when nil.
func Deref[T any](ptr *T, fallback T) T {
	if ptr == nil {
		return fallback
	}
	return *ptr
}
