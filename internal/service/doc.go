// Package service contains the application use cases. It validates input,
// drives the store interfaces from internal/store and announces committed
// task-list changes through an events.EventEmitter.
//
// Key components:
//
// 1. TaskService:
//   - Adds, replaces, updates and removes tasks in a user's ordered list
//   - Emits one ChangeEvent per committed mutation, after the commit
//
// 2. UserService:
//   - Upserts user records on sign-in and records logins
//
// Services depend on domain types and store interfaces only, never on a
// concrete backend.
package service
