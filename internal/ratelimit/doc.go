// Package ratelimit provides per-client rate limiting with background
// eviction of idle entries.
//
// The limiter is in-memory and local to one process. It blunts a single
// client hammering the site or guessing the admin password; distributed
// abuse belongs to an upstream WAF or CDN.
package ratelimit
