// Package hub provides the business boundary for the action hub workflow
// engine. It defines the Service (per-aggregate lifecycle orchestration),
// Dispatcher (concurrent notification fan-out), Store interface (persistence),
// and domain models.
package hub
