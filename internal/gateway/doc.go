// Package gateway adapts the external interactions gateway to herald's
// workflow core.
//
// # Inbound
//
// Interactions arrive as signed webhooks on POST /interactions. Each
// request's Ed25519 signature is verified against the application's public
// key before anything is parsed; pings are answered with pongs; component
// and modal interactions are decoded into an Interaction and handed to the
// workflow dispatcher. The single reply a handler produces (ephemeral
// message, in-place update, or modal) is written as the HTTP response,
// inside the platform's reply window. A handler that misses the window
// gives up silently: the expiry is the platform's, not a policy choice.
//
// # Outbound
//
// Effects that are not the interaction reply, such as posting the
// moderator-facing approval record and later editing it, go through Client,
// a small REST wrapper authenticated as the bot's own account. That keeps
// every mutation herald performs attributable to the bot in the guild's
// audit log.
package gateway
