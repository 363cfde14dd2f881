package economydomain

// Increment is a pending relative operation: add N to the stored value at
// commit time. The arithmetic runs against the document's current stored
// value, not the local snapshot the caller computed from.
type Increment struct {
	N int64
}

// DecrementFloor is a pending relative operation: subtract N from the stored
// value at commit time, clamping the result at zero.
type DecrementFloor struct {
	N int64
}

// ChangeSet accumulates the pending field operations of a Record awaiting
// commit. The tree's leaves are either literal replacement values or one of
// the relative operation markers above; nested mappings recurse.
type ChangeSet struct {
	changes map[string]any
}

func NewChangeSet() *ChangeSet {
	return &ChangeSet{changes: map[string]any{}}
}

// Update folds patch into the pending changes. Each field path holds exactly
// one pending operation: when the incoming and existing leaf are both
// relative operations their net delta folds into a single replacing op, so
// the committed arithmetic matches what the caller observed locally;
// otherwise the later entry replaces the earlier one outright.
func (c *ChangeSet) Update(patch map[string]any) *ChangeSet {
	c.changes = mergeOps(c.changes, patch)
	return c
}

// mergeOps is Merge specialized for pending-operation trees: where both
// sides carry a relative operation on the same leaf the two fold into one
// net operation instead of the later replacing the earlier.
func mergeOps(target, source map[string]any) map[string]any {
	merged := make(map[string]any, len(target)+len(source))
	for key, value := range target {
		if nested, ok := value.(map[string]any); ok {
			merged[key] = mergeOps(nested, nil)
			continue
		}
		merged[key] = value
	}
	for key, value := range source {
		incoming, incomingIsMap := value.(map[string]any)
		existing, existingIsMap := merged[key].(map[string]any)
		switch {
		case incomingIsMap && existingIsMap:
			merged[key] = mergeOps(existing, incoming)
		case incomingIsMap:
			merged[key] = mergeOps(incoming, nil)
		default:
			if folded, ok := foldRelative(merged[key], value); ok {
				merged[key] = folded
				continue
			}
			merged[key] = value
		}
	}
	return merged
}

// foldRelative combines two relative operations into the single op carrying
// their net delta. A non-negative net becomes an Increment, a negative one a
// DecrementFloor, so clamping still applies when the net effect is a debit.
// Returns false when either side is not a relative operation.
func foldRelative(existing, incoming any) (any, bool) {
	a, ok := relativeDelta(existing)
	if !ok {
		return nil, false
	}
	b, ok := relativeDelta(incoming)
	if !ok {
		return nil, false
	}
	n := a + b
	if n >= 0 {
		return Increment{n}, true
	}
	return DecrementFloor{-n}, true
}

func relativeDelta(v any) (int64, bool) {
	switch op := v.(type) {
	case Increment:
		return op.N, true
	case DecrementFloor:
		return -op.N, true
	}
	return 0, false
}

func (c *ChangeSet) Empty() bool {
	return len(c.changes) == 0
}

// Changes returns a copy of the pending operation tree.
func (c *ChangeSet) Changes() map[string]any {
	return Merge(c.changes, nil)
}

// Resolve evaluates a pending-operation tree against a document's current
// values, producing a patch of literal values ready to be merged onto the
// document. Every store implementation resolves through this function so the
// server-side arithmetic is defined in exactly one place.
func Resolve(current, changes map[string]any) map[string]any {
	resolved := make(map[string]any, len(changes))
	for key, op := range changes {
		switch v := op.(type) {
		case Increment:
			resolved[key] = toInt64(current[key]) + v.N
		case DecrementFloor:
			n := toInt64(current[key]) - v.N
			if n < 0 {
				n = 0
			}
			resolved[key] = n
		case map[string]any:
			nested, _ := current[key].(map[string]any)
			resolved[key] = Resolve(nested, v)
		default:
			resolved[key] = v
		}
	}
	return resolved
}
