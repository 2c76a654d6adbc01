// Package study implements the study-timer core: the task store, the
// session engine (a countdown state machine coupled to the task lifecycle),
// the analytics aggregator, and the Controller that owns them.
//
// Nothing here is persisted and nothing is goroutine-safe. Callers run every
// command and every Scheduler callback on a single logical thread; see
// package runloop for the production scheduler.
package study
