// Package mongodb implements the store interfaces on MongoDB.
//
// Users live in the "Users" collection keyed by a unique email index and
// each user's task list is a single document in the "TaskLists"
// collection keyed by a unique userEmail index. Every task-list mutation is a single
// findAndModify on that document, so concurrent writers for one user are
// serialized by the server without application-level locking.
package mongodb
