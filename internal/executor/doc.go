// Package executor runs GraphQL operations breadth first over a Runtime.
//
// # Field classes
//
// schema.Field.Async splits fields in two. Synchronous fields are read
// straight off the parent value through Runtime.ResolveSync and their
// selections are expanded in place, so they never add a level. Asynchronous
// fields are queued and resolved together: every asynchronous field reached at
// one depth goes into a single Runtime.BatchResolveAsync call. An operation
// whose deepest chain crosses d asynchronous fields therefore makes exactly d
// batch calls, however wide the result.
//
// # Loop
//
//  1. Pick the operation (by name, or the only one) and coerce variables.
//     Coercion failures end the request before any resolver runs.
//  2. Expand the root selection set. Sync fields complete immediately; async
//     fields become tasks.
//  3. While tasks remain: drop tasks below nullified paths, hand the rest to
//     BatchResolveAsync, complete each result at its response path. Objects
//     completed here queue their own async children for the next round.
//
// # Completion
//
// Non-Null unwraps and reports a violation when the inner value is null. List
// completes element by element with the index in the path. Scalars and enums
// go through Runtime.SerializeLeafValue. Interfaces and unions ask
// Runtime.ResolveType for the concrete type and check it is a possible type.
// Objects collect their subfields, honouring @skip, @include, aliases and
// fragments whose type condition is the object, one of its interfaces or a
// union containing it.
//
// # Errors
//
// Resolver, serialization and coercion failures become located errors with
// the response path. Errors implementing ExtendedError keep their extensions,
// which is how "code" reaches the client. A null in a Non-Null position nulls
// the nearest nullable ancestor and tombstones its path; a violation directly
// under the root nulls that root field. Other results in the same batch are
// unaffected.
//
// # Notes
//
//   - Mutation: root fields of a mutation resolve through ResolveSync, one
//     after another in document order. The loop above runs to completion for
//     each root field before the next one starts, so the value a field returns
//     does not observe writes made by later siblings.
//   - Arguments: a field whose arguments cannot be coerced records a
//     CoercionError (code BAD_USER_INPUT) and its resolver is never called.
//   - Cancellation: when the context is done before a flush, every queued task
//     fails with the context error and the runtime is not called.
package executor
