package graph

// Vertex is a converted row ready to be written under one tag.
type Vertex struct {
	// VID is the raw identifier; quoting and policy wrapping happen at render time.
	VID   string
	Props []Value
}

// Edge is a converted row ready to be written under one edge type.
type Edge struct {
	Src   string
	Dst   string
	Rank  int64
	Props []Value
}

// HasRank reports whether the edge carries an explicit rank.
func (e Edge) HasRank() bool {
	return e.Rank != 0
}
