// Package adminapi serves the JSON API used by the public site and the
// admin panel: reading and editing the content document, image uploads,
// the hero slide list and admin login.
//
// Mutating routes sit behind auth.Middleware and take the session from the
// request context. Errors are rendered as {"error": "..."}.
package adminapi
