// Package events carries task-list change notifications from the services
// that commit them to the clients that watch them.
//
// The primary components are:
// - ChangeEvent: an immutable record of one committed task-list mutation
// - EventHandler / EventEmitter: decouple producers from consumers
// - InMemoryEventEmitter: dispatches each event to every registered handler
// - Hub: a subscriber registry with a bounded, drop-oldest queue per subscriber
package events
