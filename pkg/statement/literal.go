package statement

import (
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-graphsink/pkg/graph"
)

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}

// literal renders a property value. Both dialects share the scalar forms and
// the date()/time()/datetime() constructor calls.
func literal(v graph.Value) string {
	if v.IsNull() {
		return "NULL"
	}

	switch v.Type {
	case graph.TypeString:
		return quote(v.V.(string))
	case graph.TypeInt:
		return strconv.FormatInt(v.V.(int64), 10)
	case graph.TypeDouble:
		return strconv.FormatFloat(v.V.(float64), 'f', -1, 64)
	case graph.TypeBool:
		return strconv.FormatBool(v.V.(bool))
	case graph.TypeDate:
		return "date(" + quote(v.V.(string)) + ")"
	case graph.TypeTime:
		return "time(" + quote(v.V.(string)) + ")"
	case graph.TypeDateTime:
		return "datetime(" + quote(v.V.(string)) + ")"
	case graph.TypeTimestamp:
		if n, ok := v.V.(int64); ok {
			return strconv.FormatInt(n, 10)
		}
		return "timestamp(" + quote(v.V.(string)) + ")"
	}
	return quote(graph.IDString(v.V))
}

func joinValues(props []graph.Value) string {
	parts := make([]string, len(props))
	for i, p := range props {
		parts[i] = literal(p)
	}
	return strings.Join(parts, ", ")
}
