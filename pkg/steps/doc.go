// Package steps evaluates step visibility rules and tracks the active step.
//
// The Engine reads selections through a small interface and never mutates
// them. Callers run Recompute after every selection change; the engine then
// clamps the active index so it always points inside the visible list.
package steps
