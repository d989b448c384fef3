// Package request holds the per-call options shared by the manager and the
// repositories it hands out.
package request
