package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrTypeMismatch is returned when a row value cannot be coerced to the field's schema type.
var ErrTypeMismatch = errors.New("value does not match field type")

// DataType is the schema type of a property.
type DataType int

const (
	TypeString DataType = iota
	TypeInt
	TypeDouble
	TypeBool
	TypeDate
	TypeTime
	TypeDateTime
	TypeTimestamp
)

var dataTypeNames = map[DataType]string{
	TypeString:    "string",
	TypeInt:       "int",
	TypeDouble:    "double",
	TypeBool:      "bool",
	TypeDate:      "date",
	TypeTime:      "time",
	TypeDateTime:  "datetime",
	TypeTimestamp: "timestamp",
}

func (t DataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", int(t))
}

// ParseDataType maps schema type names onto DataType. Sized integer and
// float names collapse onto int and double.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "fixed_string":
		return TypeString, nil
	case "int", "int8", "int16", "int32", "int64":
		return TypeInt, nil
	case "double", "float":
		return TypeDouble, nil
	case "bool":
		return TypeBool, nil
	case "date":
		return TypeDate, nil
	case "time":
		return TypeTime, nil
	case "datetime":
		return TypeDateTime, nil
	case "timestamp":
		return TypeTimestamp, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDataType, s)
	}
}

// Value is a property value normalized to its schema type.
//
// V holds string for TypeString, TypeDate, TypeTime and TypeDateTime (the
// textual literal), int64 for TypeInt and numeric TypeTimestamp, float64 for
// TypeDouble, bool for TypeBool, and nil for a null property.
type Value struct {
	Type DataType
	V    any
}

// IsNull reports whether the value is a null property.
func (v Value) IsNull() bool {
	return v.V == nil
}

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05.000000"
	dateTimeLayout = "2006-01-02T15:04:05.000000"
)

// NormalizeValue coerces a pipeline-native value into a Value of type t.
func NormalizeValue(t DataType, raw any) (Value, error) {
	if raw == nil {
		return Value{Type: t}, nil
	}

	switch t {
	case TypeString:
		return Value{Type: t, V: stringOf(raw)}, nil
	case TypeInt:
		n, err := toInt64(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, V: n}, nil
	case TypeDouble:
		f, err := toFloat64(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, V: f}, nil
	case TypeBool:
		switch b := raw.(type) {
		case bool:
			return Value{Type: t, V: b}, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return Value{}, fmt.Errorf("%w: %q is not a bool", ErrTypeMismatch, b)
			}
			return Value{Type: t, V: parsed}, nil
		}
		return Value{}, fmt.Errorf("%w: %T is not a bool", ErrTypeMismatch, raw)
	case TypeDate:
		return temporal(t, raw, dateLayout)
	case TypeTime:
		return temporal(t, raw, timeLayout)
	case TypeDateTime:
		return temporal(t, raw, dateTimeLayout)
	case TypeTimestamp:
		switch ts := raw.(type) {
		case time.Time:
			return Value{Type: t, V: ts.Unix()}, nil
		case string:
			if n, err := strconv.ParseInt(ts, 10, 64); err == nil {
				return Value{Type: t, V: n}, nil
			}
			return Value{Type: t, V: ts}, nil
		}
		n, err := toInt64(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, V: n}, nil
	}
	return Value{}, fmt.Errorf("%w: %v", ErrUnknownDataType, t)
}

func temporal(t DataType, raw any, layout string) (Value, error) {
	switch v := raw.(type) {
	case time.Time:
		return Value{Type: t, V: v.Format(layout)}, nil
	case string:
		return Value{Type: t, V: v}, nil
	}
	return Value{}, fmt.Errorf("%w: %T is not a %s", ErrTypeMismatch, raw, t)
}

func stringOf(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrTypeMismatch, v)
		}
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsNaN(v) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrTypeMismatch, v)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which is itself out of range.
		if v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v overflows int64", ErrTypeMismatch, v)
		}
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not an integer", ErrTypeMismatch, v)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: %T is not an integer", ErrTypeMismatch, raw)
}

func toFloat64(raw any) (float64, error) {
	var f float64
	switch v := raw.(type) {
	case float32:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not a number", ErrTypeMismatch, v)
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, v)
		}
		f = n
	default:
		n, err := toInt64(raw)
		if err != nil {
			return 0, err
		}
		return float64(n), nil
	}
	// Neither query language has a literal for NaN or infinity.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v is not a finite number", ErrTypeMismatch, f)
	}
	return f, nil
}

// ToInt64 exposes the integer coercion used for ids and ranks.
func ToInt64(raw any) (int64, error) {
	return toInt64(raw)
}

// IDString renders a raw identifier the way it is written into statements,
// before quoting.
func IDString(raw any) string {
	return stringOf(raw)
}
