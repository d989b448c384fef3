// Package service provides the explicit name -> factory registry used to
// locate transformers and repositories by name.
package service
