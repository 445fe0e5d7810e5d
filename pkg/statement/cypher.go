package statement

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-graphsink/pkg/graph"
)

// Row map keys carrying identity. Options validation reserves the "__" prefix
// so they cannot collide with property keys.
const (
	keyID   = "__id"
	keySrc  = "__src"
	keyDst  = "__dst"
	keyRank = "__rank"
)

// cypherVid renders an identifier. Cypher stores have no server-side hash()
// or uuid(), so policies are applied client-side: FNV-64a for hash and a
// name-based (SHA-1) UUID for uuid.
func cypherVid(t Target, id string) string {
	switch t.Policy {
	case graph.PolicyHash:
		h := fnv.New64a()
		h.Write([]byte(id))
		return strconv.FormatInt(int64(h.Sum64()), 10)
	case graph.PolicyUUID:
		return quote(uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String())
	}
	if t.VidType == graph.VidInt {
		return id
	}
	return quote(id)
}

func cypherRow(sb *strings.Builder, ids [][2]string, fields []string, props []graph.Value) {
	sb.WriteString("{")
	n := 0
	for _, kv := range ids {
		if n > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(kv[0])
		sb.WriteString(": ")
		sb.WriteString(kv[1])
		n++
	}
	for i, f := range fields {
		if n > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f)
		sb.WriteString(": ")
		sb.WriteString(literal(props[i]))
		n++
	}
	sb.WriteString("}")
}

func cypherSet(alias string, fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = alias + "." + f + " = row." + f
	}
	return " SET " + strings.Join(parts, ", ")
}

func cypherVertexRows(t Target, batch []graph.Vertex, withProps bool) string {
	var sb strings.Builder
	sb.WriteString("UNWIND [")
	for i, v := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		fields, props := t.Fields, v.Props
		if !withProps {
			fields, props = nil, nil
		}
		cypherRow(&sb, [][2]string{{keyID, cypherVid(t, v.VID)}}, fields, props)
	}
	sb.WriteString("] AS row ")
	return sb.String()
}

func cypherEdgeRows(t Target, batch []graph.Edge, withProps bool) string {
	var sb strings.Builder
	sb.WriteString("UNWIND [")
	for i, e := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		fields, props := t.Fields, e.Props
		if !withProps {
			fields, props = nil, nil
		}
		cypherRow(&sb, [][2]string{
			{keySrc, cypherVid(t, e.Src)},
			{keyDst, cypherVid(t, e.Dst)},
			{keyRank, strconv.FormatInt(e.Rank, 10)},
		}, fields, props)
	}
	sb.WriteString("] AS row ")
	return sb.String()
}

// UNWIND [{__id: "p1", name: "Tom"}] AS row MERGE (n:player {id: row.__id}) SET n.name = row.name
func cypherInsertVertices(t Target, batch []graph.Vertex) string {
	return cypherVertexRows(t, batch, true) +
		"MERGE (n:" + t.Label + " {id: row." + keyID + "})" + cypherSet("n", t.Fields)
}

func cypherUpdateVertices(t Target, batch []graph.Vertex) string {
	return cypherVertexRows(t, batch, true) +
		"MATCH (n:" + t.Label + " {id: row." + keyID + "})" + cypherSet("n", t.Fields)
}

// MATCH (n:player) WHERE n.id IN ["p1", "p2"] DETACH DELETE n
func cypherDeleteVertices(t Target, batch []graph.Vertex) string {
	ids := make([]string, len(batch))
	for i, v := range batch {
		ids[i] = cypherVid(t, v.VID)
	}
	return "MATCH (n:" + t.Label + ") WHERE n.id IN [" + strings.Join(ids, ", ") + "] DETACH DELETE n"
}

func cypherEdgeMatch(t Target) string {
	return "MATCH (a {id: row." + keySrc + "})-[r:" + t.Label + " {rank: row." + keyRank + "}]->(b {id: row." + keyDst + "})"
}

func cypherInsertEdges(t Target, batch []graph.Edge) string {
	return cypherEdgeRows(t, batch, true) +
		"MATCH (a {id: row." + keySrc + "}), (b {id: row." + keyDst + "}) " +
		"MERGE (a)-[r:" + t.Label + " {rank: row." + keyRank + "}]->(b)" + cypherSet("r", t.Fields)
}

func cypherUpdateEdges(t Target, batch []graph.Edge) string {
	return cypherEdgeRows(t, batch, true) + cypherEdgeMatch(t) + cypherSet("r", t.Fields)
}

func cypherDeleteEdges(t Target, batch []graph.Edge) string {
	return cypherEdgeRows(t, batch, false) + cypherEdgeMatch(t) + " DELETE r"
}
