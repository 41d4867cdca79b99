/*
Package simdb is an embeddable entity-archetype storage engine for large
numerical simulations: millions of entities (neurons, synapses, ion
channels) stored as structure-of-arrays columns instead of pointer-linked
objects.

An archetype is a schema for one class of entity; its components are typed
slots backed by contiguous columns, shared global constants, or
compressed-row sparse matrices of weighted pointers. Entities are rows.
Creation appends a row; destruction is batched: mark any number of entities,
then Commit once. The commit computes the cascade closure of non-nullable
pointers, closes the holes with a stable shift, and rewrites every stored
pointer and handle in the database exactly once, in time linear in total
rows plus total pointer slots.

Two reference kinds exist. A Pointer is a raw row index, valid only until
the next Commit or Reorder on its archetype; access through it is unchecked
and as fast as an array index. A Handle is durable: it resolves to the
entity's current row through the pointer index on every use and survives any
number of commits and reorders until the entity or the handle is destroyed.

Validation (NaN, bounds, null checks) is opt-in per component, runs only
when asked, and returns a report rather than failing the caller.

The engine assumes a single logical owner per turn: perform raw operations,
then yield with Commit or Reorder. No concurrency model is provided.
*/
package simdb
