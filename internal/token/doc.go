// Package token encodes and decodes workflow state carried in component
// custom IDs. Because the interactions gateway is stateless, every token is
// fully self-describing: kind, step, and an ordered list of positional
// fields. Decoding checks the exact field arity for each (kind, step) pair,
// so a replayed token from an earlier hop is rejected rather than silently
// corrupting a later step.
package token
