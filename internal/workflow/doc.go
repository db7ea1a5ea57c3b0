// Package workflow implements herald's multi-step interaction workflows on
// top of the stateless token protocol.
//
// # Model
//
// A workflow is a set of steps connected only by tokens: each reply embeds
// the tokens for the next legal steps in its components, and each inbound
// interaction carries exactly one token identifying where the user is. No
// session state exists anywhere else, so any process instance can handle
// any hop, and a crash between hops loses nothing.
//
// # Dispatch
//
// The Dispatcher is the single entry point. It decodes the token, drops
// redelivered interaction IDs, authorizes the actor against the token, and
// invokes the handler registered for the token's kind. Undecodable tokens
// and authorization failures become ephemeral replies; only a handler bug
// surfaces as an error to the gateway.
//
// # Workflows
//
// Setup is the guild setup wizard: announcement channel, then an optional
// avatar channel. Request and Approval form the streamer announcement
// pipeline: a member picks platforms and submits usernames, a pending
// approval record is posted for moderators, and approving or denying it
// resolves the record exactly once.
package workflow
