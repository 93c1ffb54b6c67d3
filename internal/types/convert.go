package types

import "strconv"

// AsTenantID converts a scanned database value to a tenant identifier.
// ClickHouse drivers surface numeric columns as various integer widths
// depending on the column type; string and []byte values are parsed.
// Returns false for values that do not represent an integer id.
func AsTenantID(v interface{}) (int64, bool) {
	switch i := v.(type) {
	case int64:
		return i, true
	case int:
		return int64(i), true
	case int32:
		return int64(i), true
	case int16:
		return int64(i), true
	case int8:
		return int64(i), true
	case uint:
		return int64(i), true
	case uint64:
		return int64(i), true
	case uint32:
		return int64(i), true
	case uint16:
		return int64(i), true
	case uint8:
		return int64(i), true
	case string:
		n, err := strconv.ParseInt(i, 10, 64)
		return n, err == nil
	case []byte:
		n, err := strconv.ParseInt(string(i), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
