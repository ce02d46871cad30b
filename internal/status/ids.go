package status

import (
	"fmt"
	"math"
	"strconv"
)

// CoerceID renders any id representation as a string so records coming
// from different sources (numeric json ids, string ids, uuids) compare
// equal. applyStatus(42, ...) must match a record whose id is "42".
func CoerceID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case int:
		return strconv.Itoa(id)
	case int32:
		return strconv.FormatInt(int64(id), 10)
	case int64:
		return strconv.FormatInt(id, 10)
	case float64:
		// JSON numbers decode as float64; integral values must not
		// grow a ".0" suffix.
		if id == math.Trunc(id) && !math.IsInf(id, 0) {
			return strconv.FormatInt(int64(id), 10)
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case fmt.Stringer:
		return id.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", id)
	}
}

// SameID compares two id representations via string coercion.
func SameID(a, b interface{}) bool {
	return CoerceID(a) == CoerceID(b)
}
