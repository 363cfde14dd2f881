package economydomain

// Raw documents round-trip through Firestore, which hands numeric fields back
// as int64 or float64 depending on how they were written. These helpers
// normalize document values when decoding into typed record fields.

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func toMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
