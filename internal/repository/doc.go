// Package repository implements CRUD orchestration for one entity kind on
// top of a request.Requester.
package repository
