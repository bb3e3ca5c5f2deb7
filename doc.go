// Package authgate provides the token lifecycle and request-gating core of
// a multi-service application: issuance of signed bearer tokens with
// embedded claims, per-request validation, an explicit revocation
// blacklist, and the middleware that wires those into the request pipeline.
//
// Token lifecycle:
//   - TokenService issues HMAC-SHA256 tokens whose subject is the user
//     code, with a fixed TTL (24h default) and the application claims
//     codigoUsuario, foto, rol, nombreCompleto. Tokens are immutable once
//     issued; they are only verified and, optionally, revoked.
//   - IsValidFor is the single validity predicate (signature + subject +
//     expiry). Revocation is a separate, explicit check so callers can
//     tell "cryptographically invalid" apart from "explicitly revoked".
//
// Revocation:
//   - RevocationStore implementations cover in-memory (single process,
//     test double), Bun over a shared database (durable, cluster-wide
//     logout), and Redis (shared, self-pruning via TTL). A store failure
//     is never silently ignored: the gate rejects rather than admit a
//     possibly revoked token.
//
// Request gating:
//   - middleware/tokengate runs once per request: extract bearer token,
//     check revocation, verify, resolve the principal, and attach the
//     authenticated context. Requests without a valid token proceed
//     unauthenticated; only revoked tokens (or an unreachable revocation
//     store) terminate the request at the gate.
package authgate
