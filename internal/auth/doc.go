// Package auth guards the admin API.
//
// There is one shared admin password and one admin API key. Logging in
// with the password returns the API key; every mutating request then
// carries it in the x-admin-key header. [Middleware] turns a valid key into
// a [Session] stored on the request context, and the content and image
// services take that session explicitly so every change is attributable in
// the logs.
package auth
