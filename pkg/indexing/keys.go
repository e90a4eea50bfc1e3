package indexing

import (
	"fmt"
	"strconv"
	"strings"
)

// Separator joins field names and values into composite keys
const Separator = "_"

// CompositeName returns the identity of an index over the given fields
func CompositeName(keys []string) string {
	return strings.Join(keys, Separator)
}

// CompositeValue returns the lookup key for the given field values
func CompositeValue(values []interface{}) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = Stringify(v)
	}
	return strings.Join(parts, Separator)
}

// Stringify renders a field value the way it appears inside a composite key.
// nil renders empty, and integral floats render without a fraction so a value
// decoded from JSON still matches the same integer written in Go.
func Stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
