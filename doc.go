// Package portal implements the client-side session model and REST client for
// the iStokvel member/admin portal. The backend owns every business decision;
// this package owns the UX invariants that have to hold before the backend is
// ever asked:
//
//   - Session resolution: a usable session requires a structurally valid,
//     unexpired bearer token AND a cached user record whose verification flag
//     is set. Anything less clears local storage and reads as signed-out.
//   - Role gating: RequireRole gates rendering only. The server re-authorizes
//     every request; the gate exists so protected views are never presented to
//     a session the backend would reject anyway.
//   - Authority revocation: a 403 response telling the user to verify their
//     email is treated as a revoked session. The client clears storage and
//     fires the revocation hook so the shell can force a trip to /login.
//
// Auth actions (login, signup, OTP verification, logout) normalize every
// failure into a {Success, Message} result; transport errors never cross the
// package boundary as raw errors from those entry points.
//
// Activity sinks:
//   - ActivitySink is a light-weight telemetry emitter used by Authenticator
//     to describe login, verification, and logout outcomes. Sinks run
//     best-effort (errors are logged) so forwarding to a queue or log never
//     blocks an auth action.
package portal
