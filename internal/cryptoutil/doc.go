// Package cryptoutil holds the hashing and comparison helpers shared by
// the content snapshot and the admin credential checks.
package cryptoutil
