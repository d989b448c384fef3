// Package entity defines the records managed by repositories.
package entity
