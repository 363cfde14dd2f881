package economydomain

// Merge combines two nested mappings using document-store merge semantics:
// a key present in source replaces the target value outright unless both
// sides hold a nested mapping at that path, in which case the merge recurses.
// A mapping arriving where the target holds a scalar (or nothing) is taken
// wholesale; a scalar arriving where the target holds a mapping discards the
// mapping. Neither input is mutated; nested mappings are copied on the way
// into the result.
func Merge(target, source map[string]any) map[string]any {
	merged := make(map[string]any, len(target)+len(source))
	for key, value := range target {
		if nested, ok := value.(map[string]any); ok {
			merged[key] = Merge(nested, nil)
			continue
		}
		merged[key] = value
	}
	for key, value := range source {
		incoming, incomingIsMap := value.(map[string]any)
		existing, existingIsMap := merged[key].(map[string]any)
		switch {
		case incomingIsMap && existingIsMap:
			merged[key] = Merge(existing, incoming)
		case incomingIsMap:
			merged[key] = Merge(incoming, nil)
		default:
			merged[key] = value
		}
	}
	return merged
}
