// Package repository provides per-entity data access for the catalog schema.
//
// Repositories are thin: each wraps the *gorm.DB handed to it, which inside a
// datastore.Session is the session's transaction. Writes are flushed so that
// generated IDs are available immediately, but nothing here commits; the
// session owns the unit of work.
//
// All list methods return rows in a deterministic order, the entity's temporal
// or natural sort field followed by id.
package repository
