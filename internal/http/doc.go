// Package http provides the JSON API in front of the session store and the
// calendar grid builder.
//
// The router exposes the following endpoints:
//   - POST /auth/signup: creates an account and signs it in. Body mirrors the
//     signup candidate (name, email, role, department, phone?, studentId?,
//     facultyId?). Responds 201 with the session state.
//   - POST /auth/login: authenticates by email. With a "role" field in the
//     body the role-scoped variant is used instead of the registry lookup.
//   - POST /auth/login/id: authenticates by member identifier and role.
//   - POST /auth/otp/request + POST /auth/otp/verify: the two-phase OTP flow.
//   - POST /auth/logout: clears the session, responds 204.
//   - GET /auth/session: the current session state.
//   - PATCH /profile: shallow-merges profile fields into the current user.
//   - GET /calendar/{year}/{month}?selected=YYYY-MM-DD: the month grid.
//   - POST /events: stores a dated, colored calendar event.
//   - GET /healthz, GET /metrics: operational endpoints.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
