// Package redis relays task-list change events between server instances.
//
// Every instance publishes the events it commits to a shared Redis pub/sub
// channel and feeds the events published by other instances into its local
// Hub, so websocket clients see changes regardless of which instance
// handled the write.
package redis
