// Package domain defines the core entities of the task synchronization
// service: user accounts keyed by email, free-form tasks identified by a
// caller-supplied id, and the ordered per-user task list that owns them.
//
// Entities in this package are plain data with validation helpers. They
// carry no persistence or transport concerns; mapping to Postgres rows or
// MongoDB documents happens in the platform packages.
package domain
