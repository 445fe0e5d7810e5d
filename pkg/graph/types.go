// Package graph holds the connector's entity model: the positional rows handed
// over by the pipeline, the vertices and edges they convert into, and the
// enumerations that select how entities are written.
package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownWriteMode = errors.New("unknown write mode")
	ErrUnknownVidType   = errors.New("unknown vid type")
	ErrUnknownPolicy    = errors.New("unknown id policy")
	ErrUnknownDataType  = errors.New("unknown data type")
	ErrUnknownKind      = errors.New("unknown entity kind")
)

// Row is one pipeline record in its native positional form.
type Row []any

// Field returns the value at pos, or (nil, false) when the row is too short.
func (r Row) Field(pos int) (any, bool) {
	if pos < 0 || pos >= len(r) {
		return nil, false
	}
	return r[pos], true
}

// WriteMode selects which statement a batch is rendered into.
type WriteMode int

const (
	WriteModeInsert WriteMode = iota
	WriteModeUpdate
	WriteModeDelete
)

func (m WriteMode) String() string {
	switch m {
	case WriteModeInsert:
		return "insert"
	case WriteModeUpdate:
		return "update"
	case WriteModeDelete:
		return "delete"
	default:
		return fmt.Sprintf("WriteMode(%d)", int(m))
	}
}

// Valid reports whether m is one of the declared write modes.
func (m WriteMode) Valid() bool {
	return m >= WriteModeInsert && m <= WriteModeDelete
}

// ParseWriteMode accepts insert, update or delete in any case.
func ParseWriteMode(s string) (WriteMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "insert", "":
		return WriteModeInsert, nil
	case "update":
		return WriteModeUpdate, nil
	case "delete":
		return WriteModeDelete, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownWriteMode, s)
	}
}

// EntityKind distinguishes vertex and edge batches.
type EntityKind int

const (
	KindVertex EntityKind = iota
	KindEdge
)

func (k EntityKind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindEdge:
		return "edge"
	default:
		return fmt.Sprintf("EntityKind(%d)", int(k))
	}
}

// ParseEntityKind accepts vertex or edge (tag is accepted as an alias of vertex).
func ParseEntityKind(s string) (EntityKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertex", "tag":
		return KindVertex, nil
	case "edge":
		return KindEdge, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// VidType is the type of vertex identifiers in the target graph space.
type VidType int

const (
	VidString VidType = iota
	VidInt
)

func (v VidType) String() string {
	if v == VidInt {
		return "int"
	}
	return "string"
}

func ParseVidType(s string) (VidType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "fixed_string", "":
		return VidString, nil
	case "int", "int64":
		return VidInt, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownVidType, s)
	}
}

// Policy controls how a raw id is turned into a vertex identifier.
type Policy int

const (
	PolicyNone Policy = iota
	PolicyHash
	PolicyUUID
)

func (p Policy) String() string {
	switch p {
	case PolicyHash:
		return "hash"
	case PolicyUUID:
		return "uuid"
	default:
		return "none"
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PolicyNone, nil
	case "hash":
		return PolicyHash, nil
	case "uuid":
		return PolicyUUID, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}
