package statement

import (
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-graphsink/pkg/graph"
)

func ngqlVid(t Target, id string) string {
	switch t.Policy {
	case graph.PolicyHash:
		return "hash(" + quote(id) + ")"
	case graph.PolicyUUID:
		return "uuid(" + quote(id) + ")"
	}
	if t.VidType == graph.VidInt {
		return id
	}
	return quote(id)
}

func ngqlEdgeRef(t Target, e graph.Edge) string {
	ref := ngqlVid(t, e.Src) + "->" + ngqlVid(t, e.Dst)
	if e.HasRank() {
		ref += "@" + strconv.FormatInt(e.Rank, 10)
	}
	return ref
}

func ngqlAssignments(fields []string, props []graph.Value) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + " = " + literal(props[i])
	}
	return strings.Join(parts, ", ")
}

// INSERT VERTEX player(name, age) VALUES "p1":("Tom", 11), "p2":("Ann", 12)
func ngqlInsertVertices(t Target, batch []graph.Vertex) string {
	var sb strings.Builder
	sb.WriteString("INSERT VERTEX ")
	sb.WriteString(t.Label)
	sb.WriteString("(")
	sb.WriteString(strings.Join(t.Fields, ", "))
	sb.WriteString(") VALUES ")
	for i, v := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(ngqlVid(t, v.VID))
		sb.WriteString(":(")
		sb.WriteString(joinValues(v.Props))
		sb.WriteString(")")
	}
	return sb.String()
}

// UPDATE VERTEX ON player "p1" SET name = "Tom"; UPDATE VERTEX ON ...
func ngqlUpdateVertices(t Target, batch []graph.Vertex) string {
	stmts := make([]string, len(batch))
	for i, v := range batch {
		stmts[i] = "UPDATE VERTEX ON " + t.Label + " " + ngqlVid(t, v.VID) + " SET " + ngqlAssignments(t.Fields, v.Props)
	}
	return strings.Join(stmts, "; ")
}

// DELETE VERTEX "p1", "p2"
func ngqlDeleteVertices(t Target, batch []graph.Vertex) string {
	ids := make([]string, len(batch))
	for i, v := range batch {
		ids[i] = ngqlVid(t, v.VID)
	}
	return "DELETE VERTEX " + strings.Join(ids, ", ")
}

// INSERT EDGE follow(degree) VALUES "a"->"b"@1:(95)
func ngqlInsertEdges(t Target, batch []graph.Edge) string {
	var sb strings.Builder
	sb.WriteString("INSERT EDGE ")
	sb.WriteString(t.Label)
	sb.WriteString("(")
	sb.WriteString(strings.Join(t.Fields, ", "))
	sb.WriteString(") VALUES ")
	for i, e := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(ngqlEdgeRef(t, e))
		sb.WriteString(":(")
		sb.WriteString(joinValues(e.Props))
		sb.WriteString(")")
	}
	return sb.String()
}

func ngqlUpdateEdges(t Target, batch []graph.Edge) string {
	stmts := make([]string, len(batch))
	for i, e := range batch {
		stmts[i] = "UPDATE EDGE ON " + t.Label + " " + ngqlEdgeRef(t, e) + " SET " + ngqlAssignments(t.Fields, e.Props)
	}
	return strings.Join(stmts, "; ")
}

// DELETE EDGE follow "a"->"b"@1, "c"->"d"
func ngqlDeleteEdges(t Target, batch []graph.Edge) string {
	refs := make([]string, len(batch))
	for i, e := range batch {
		refs[i] = ngqlEdgeRef(t, e)
	}
	return "DELETE EDGE " + t.Label + " " + strings.Join(refs, ", ")
}
