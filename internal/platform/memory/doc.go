// Package memory provides in-process implementations of the store
// interfaces. Each store guards its data with a mutex so that every
// mutation is atomic with respect to concurrent callers.
//
// The memory backend is selected with a memory:// database URL and is
// intended for local runs and tests; data does not survive a restart.
package memory
