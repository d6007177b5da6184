// Package mocks provides testify-based mock implementations of the store,
// event and service interfaces for use in tests.
package mocks
