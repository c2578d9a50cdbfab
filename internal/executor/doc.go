// Package executor is the engine's top-level entry point. It resolves a
// graph into a level plan, assembles a scheduler and execution context per
// run, and hands back a Run handle with pause, resume, and stop control.
package executor
