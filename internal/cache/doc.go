// Package cache provides a tag-scoped key/value cache. Each tag owns its
// own storage, so a whole tag can be dropped at once.
package cache
