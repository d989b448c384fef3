// Package transport defines the request/response contract between the
// manager and the network, plus an HTTP implementation.
package transport
