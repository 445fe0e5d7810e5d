package statement

import (
	"hash/fnv"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-graphsink/pkg/graph"
	"github.com/dd0wney/cluso-graphsink/pkg/options"
)

var (
	playerTarget = Target{Label: "player", Fields: []string{"name", "age"}}
	followTarget = Target{Label: "follow", Fields: []string{"degree"}}

	players = []graph.Vertex{
		{VID: "p1", Props: []graph.Value{{Type: graph.TypeString, V: "Tom"}, {Type: graph.TypeInt, V: int64(11)}}},
		{VID: "p2", Props: []graph.Value{{Type: graph.TypeString, V: "Ann"}, {Type: graph.TypeInt}}},
	}
	follows = []graph.Edge{
		{Src: "a", Dst: "b", Rank: 1, Props: []graph.Value{{Type: graph.TypeInt, V: int64(95)}}},
		{Src: "c", Dst: "d", Props: []graph.Value{{Type: graph.TypeInt, V: int64(80)}}},
	}
)

func TestVerticesNGQL(t *testing.T) {
	tests := []struct {
		mode graph.WriteMode
		want string
	}{
		{graph.WriteModeInsert, `INSERT VERTEX player(name, age) VALUES "p1":("Tom", 11), "p2":("Ann", NULL)`},
		{graph.WriteModeUpdate, `UPDATE VERTEX ON player "p1" SET name = "Tom", age = 11; UPDATE VERTEX ON player "p2" SET name = "Ann", age = NULL`},
		{graph.WriteModeDelete, `DELETE VERTEX "p1", "p2"`},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			got, err := Vertices(options.DialectNGQL, tt.mode, playerTarget, players)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEdgesNGQL(t *testing.T) {
	tests := []struct {
		mode graph.WriteMode
		want string
	}{
		{graph.WriteModeInsert, `INSERT EDGE follow(degree) VALUES "a"->"b"@1:(95), "c"->"d":(80)`},
		{graph.WriteModeUpdate, `UPDATE EDGE ON follow "a"->"b"@1 SET degree = 95; UPDATE EDGE ON follow "c"->"d" SET degree = 80`},
		{graph.WriteModeDelete, `DELETE EDGE follow "a"->"b"@1, "c"->"d"`},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			got, err := Edges(options.DialectNGQL, tt.mode, followTarget, follows)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerticesCypher(t *testing.T) {
	tests := []struct {
		mode graph.WriteMode
		want string
	}{
		{graph.WriteModeInsert, `UNWIND [{__id: "p1", name: "Tom", age: 11}, {__id: "p2", name: "Ann", age: NULL}] AS row ` +
			`MERGE (n:player {id: row.__id}) SET n.name = row.name, n.age = row.age`},
		{graph.WriteModeUpdate, `UNWIND [{__id: "p1", name: "Tom", age: 11}, {__id: "p2", name: "Ann", age: NULL}] AS row ` +
			`MATCH (n:player {id: row.__id}) SET n.name = row.name, n.age = row.age`},
		{graph.WriteModeDelete, `MATCH (n:player) WHERE n.id IN ["p1", "p2"] DETACH DELETE n`},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			got, err := Vertices(options.DialectCypher, tt.mode, playerTarget, players)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEdgesCypher(t *testing.T) {
	insert, err := Edges(options.DialectCypher, graph.WriteModeInsert, followTarget, follows)
	require.NoError(t, err)
	assert.Equal(t, `UNWIND [{__src: "a", __dst: "b", __rank: 1, degree: 95}, {__src: "c", __dst: "d", __rank: 0, degree: 80}] AS row `+
		`MATCH (a {id: row.__src}), (b {id: row.__dst}) MERGE (a)-[r:follow {rank: row.__rank}]->(b) SET r.degree = row.degree`, insert)

	update, err := Edges(options.DialectCypher, graph.WriteModeUpdate, followTarget, follows[:1])
	require.NoError(t, err)
	assert.Equal(t, `UNWIND [{__src: "a", __dst: "b", __rank: 1, degree: 95}] AS row `+
		`MATCH (a {id: row.__src})-[r:follow {rank: row.__rank}]->(b {id: row.__dst}) SET r.degree = row.degree`, update)

	del, err := Edges(options.DialectCypher, graph.WriteModeDelete, followTarget, follows)
	require.NoError(t, err)
	assert.Equal(t, `UNWIND [{__src: "a", __dst: "b", __rank: 1}, {__src: "c", __dst: "d", __rank: 0}] AS row `+
		`MATCH (a {id: row.__src})-[r:follow {rank: row.__rank}]->(b {id: row.__dst}) DELETE r`, del)
}

func TestPolicies(t *testing.T) {
	batch := []graph.Vertex{{VID: "Tim"}}

	hashTarget := Target{Label: "player", Policy: graph.PolicyHash, VidType: graph.VidInt}
	got, err := Vertices(options.DialectNGQL, graph.WriteModeDelete, hashTarget, batch)
	require.NoError(t, err)
	assert.Equal(t, `DELETE VERTEX hash("Tim")`, got)

	uuidTarget := Target{Label: "player", Policy: graph.PolicyUUID, VidType: graph.VidInt}
	got, err = Vertices(options.DialectNGQL, graph.WriteModeDelete, uuidTarget, batch)
	require.NoError(t, err)
	assert.Equal(t, `DELETE VERTEX uuid("Tim")`, got)

	h := fnv.New64a()
	h.Write([]byte("Tim"))
	got, err = Vertices(options.DialectCypher, graph.WriteModeDelete, hashTarget, batch)
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n:player) WHERE n.id IN ["+strconv.FormatInt(int64(h.Sum64()), 10)+"] DETACH DELETE n", got)

	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("Tim")).String()
	got, err = Vertices(options.DialectCypher, graph.WriteModeDelete, uuidTarget, batch)
	require.NoError(t, err)
	assert.Equal(t, `MATCH (n:player) WHERE n.id IN ["`+id+`"] DETACH DELETE n`, got)

	intTarget := Target{Label: "player", VidType: graph.VidInt}
	got, err = Vertices(options.DialectNGQL, graph.WriteModeDelete, intTarget, []graph.Vertex{{VID: "42"}})
	require.NoError(t, err)
	assert.Equal(t, `DELETE VERTEX 42`, got)
}

func TestLiterals(t *testing.T) {
	tests := []struct {
		v    graph.Value
		want string
	}{
		{graph.Value{Type: graph.TypeString, V: `say "hi"\` + "\n"}, `"say \"hi\"\\\n"`},
		{graph.Value{Type: graph.TypeDouble, V: 1.5}, "1.5"},
		{graph.Value{Type: graph.TypeBool, V: false}, "false"},
		{graph.Value{Type: graph.TypeDate, V: "2021-03-04"}, `date("2021-03-04")`},
		{graph.Value{Type: graph.TypeTime, V: "10:00:00"}, `time("10:00:00")`},
		{graph.Value{Type: graph.TypeDateTime, V: "2021-03-04T10:00:00"}, `datetime("2021-03-04T10:00:00")`},
		{graph.Value{Type: graph.TypeTimestamp, V: int64(1600000000)}, "1600000000"},
		{graph.Value{Type: graph.TypeTimestamp, V: "2021-03-04T10:00:00"}, `timestamp("2021-03-04T10:00:00")`},
		{graph.Value{Type: graph.TypeString}, "NULL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, literal(tt.v))
	}
}

func TestRenderErrors(t *testing.T) {
	_, err := Vertices(options.DialectNGQL, graph.WriteMode(9), playerTarget, players)
	assert.ErrorIs(t, err, ErrUnsupportedWriteMode)

	_, err = Edges(options.Dialect(5), graph.WriteModeInsert, followTarget, follows)
	assert.ErrorIs(t, err, ErrUnsupportedWriteMode)

	_, err = Vertices(options.DialectNGQL, graph.WriteModeInsert, playerTarget, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	assert.True(t, Supports(options.DialectCypher, graph.WriteModeDelete))
	assert.False(t, Supports(options.DialectNGQL, graph.WriteMode(-1)))
}

func TestEveryRenderedStatementNamesAllIDs(t *testing.T) {
	for _, dialect := range []options.Dialect{options.DialectNGQL, options.DialectCypher} {
		for _, mode := range []graph.WriteMode{graph.WriteModeInsert, graph.WriteModeUpdate, graph.WriteModeDelete} {
			got, err := Vertices(dialect, mode, playerTarget, players)
			require.NoError(t, err)
			assert.Contains(t, got, `"p1"`, "%s/%s", dialect, mode)
			assert.Contains(t, got, `"p2"`, "%s/%s", dialect, mode)
			if mode != graph.WriteModeDelete {
				assert.Contains(t, got, `"Tom"`, "%s/%s", dialect, mode)
				assert.Contains(t, got, `11`, "%s/%s", dialect, mode)
			}
		}
	}
}
