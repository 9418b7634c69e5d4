// Package supabase implements the identity backend against the Supabase
// auth (GoTrue) REST API.
package supabase
