// Package httpmw holds the middleware shared by the site and ops listeners.
//
// httpserver composes them outermost first: recover, security headers,
// request id, client ip, rate limiting, tracing, route annotation,
// content headers, metrics, request logger and access log. Query strings
// and user agents stay out of logs.
package httpmw
