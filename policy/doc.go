// Package policy decides what an authenticated identity may see and change.
//
// Reads are filtered: Scope returns a gorm scope that silently drops rows
// outside the caller's reach, so listings never reveal them. Point mutations
// are guarded: the Authorize* functions compare ownership on a row that was
// already fetched and return an error wrapping ErrDenied, so the caller learns
// that this specific object is off limits.
//
// MASTER sees and changes everything. DITTA is confined to rows of its own
// company. TECNICO is confined to rows assigned to itself. An identity of a
// scoped role with no affiliation gets an empty scope, never an error.
package policy
