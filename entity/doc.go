// Package entity provides the persistence engines: Group, the CRUD and
// batch engine for one entity type over one table, and Relation, the
// join-table engine for a stored association between two entity types.
//
// Engines are synchronous and session-per-call. They hold no entity
// cache; their only internal state is the lazily computed binding set
// and a bounded cache of ad hoc query shapes.
package entity
