// Package auth implements the authentication-claim lifecycle for the
// service: token encoding, durable claim records, per-request guarding, and
// the auth operations built on top of them.
//
// Claim lifecycle:
//   - A Claim binds an issued bearer token to a denormalized user snapshot
//     and lives in an external key/value store, keyed by the access token.
//     ClaimService creates claims on login and refresh, deletes them on
//     logout, and never mutates one in place.
//   - The Guard validates requests with a live store lookup rather than a
//     local signature check, so logout revokes access immediately.
//   - Refresh chains share one refresh token; forced logout walks the chain
//     and revokes every claim derived from it.
//
// Events:
//   - EventBus is an explicit dispatcher for claim-lifecycle events (login,
//     logout, refresh). Subscribers run best-effort; dispatch can never fail
//     an auth operation.
//
// Errors:
//   - The taxonomy in errors.go maps every failure to a stable machine
//     message code and HTTP status, rendered by the rest package envelope.
package auth
