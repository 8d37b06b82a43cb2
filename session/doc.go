// Package session drives one completion turn: it feeds the prompt and the
// bound capability list to the model, invokes requested capabilities, and
// reports progress to the caller as an ordered stream of events. Every
// capability invocation is recorded and surfaced on the final event.
package session
