// Package hubapi is the HTTP transport between deskhub and the hub's webhook
// endpoints.
//
// # Overview
//
// Every hub endpoint is a webhook that accepts a JSON POST and answers with
// JSON. The shape of that JSON varies between deployments, so this package
// never decodes list responses: Fetch returns the raw bytes and the decode
// package turns them into records.
//
// # Request Handling
//
// All requests:
//   - Are validated with ValidateEndpoint before any I/O
//   - Send Content-Type and Accept: application/json
//   - Include User-Agent: deskhub/<version>
//   - Honor the context for cancellation
//   - Use the http.Client timeout (30 seconds unless configured)
//
// List bodies come from RequestParams.Body:
//
//	tasks, notifications, actions   {"userId":"default_user","limit":50}
//	conversations                   {}
//	conversation_history            {"conversationId":"<id>"}
//
// # Error Handling
//
// Errors fall into three types so callers can pick a fallback without string
// matching:
//
//   - *ConfigurationError: empty or unusable endpoint, no request was sent
//   - *TransportError: the exchange did not complete (refused, DNS, timeout)
//   - *StatusError: the hub answered with a non-2xx status
//
// IsTransportError covers both of the latter. Class maps an error onto the
// short label used in logs and metrics.
//
// # Mutations
//
// Update, SendMessage and Trigger reuse the same request path. Update
// responses are judged by status code only. Trigger sends a quick action's
// payload with the action's own method.
//
// # Design Rationale
//
// The client does no retries, caching or backoff. The sync engine decides
// what a failure means and the refresh scheduler decides when to try again.
package hubapi
