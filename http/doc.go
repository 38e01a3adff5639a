// Package http provides session-scoped HTTP clients keyed by base URL,
// with layered configuration, a retry state machine, and structured logging.
//
// Sessions
//   - Created via Client.CreateOrReplaceSession(baseURL, config).
//   - Keyed by normalized base URL (lowercase scheme and host, no trailing slash).
//   - At most one session per key: re-creating replaces the entry atomically
//     and closes the old transport's idle connections. In-flight requests
//     holding a snapshot are unaffected.
//
// Requests
//   - Verb helpers (Get, Put, Post, Patch, Delete, Upload) resolve the session,
//     merge request-level options over session configuration, and run the
//     attempt loop.
//   - Request headers overlay session headers case-insensitively, last write
//     wins. Connection: close is always forced.
//   - A per-request retry policy replaces the session policy wholesale.
//
// Retries
//   - Delegated to the retry package: linear or exponential backoff, with
//     retryLimit attempts after the first. Transport failures and HTTP
//     statuses >= 400 are eligible; non-idempotent methods are only retried
//     when the policy opts in.
//   - The retry wait is the executor's sole suspension point and honors
//     context cancellation.
//
// Notes
//   - Request bodies are re-sent by rebuilding the http.Request on each attempt.
//   - Responses with status 200-399 are returned with OK set; statuses >= 400
//     surface an HTTPError that carries the full final response.
package http
