// Package authz gates workflow advancement. Once an approval record exists,
// ownership of the workflow shifts from the requester's identity to anyone
// holding the moderation capability.
package authz
