// Package adminapi exposes the rollout controller to operators over HTTP.
//
// Routes (mounted by Router):
//
//	GET    /status          controller snapshot for the caller's session
//	GET    /decisions       new-path, parallel and per-component decisions
//	PUT    /flags/{name}    {"value": bool} sets a runtime override
//	DELETE /flags/{name}    removes the override
//	POST   /rollback        {"reason": string} triggers an emergency rollback
//	GET    /audit           retained audit events, oldest first
//	DELETE /audit           clears the audit trail
//	GET    /healthz         readiness of the configured backends
//
// The caller's session comes from the X-Session-ID header. A missing or
// malformed header is replaced by a fresh UUID, which is echoed back in the
// response so clients can keep their bucket.
//
// Every JSON body uses the envelope {"data": ...} or {"error": {"code", "message"}}.
package adminapi
