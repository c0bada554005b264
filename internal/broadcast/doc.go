// Package broadcast implements the listener registry and fan-out using the actor pattern.
//
// A single goroutine owns the listener set and serializes register, unregister and broadcast commands (no mutexes).
// Every listener runs its own writer goroutine: it pushes a fresh synthetic payload on each tick, drains queued
// broadcasts in FIFO order and is dropped from the registry on its first failed write.
package broadcast
