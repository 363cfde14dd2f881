package economydomain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name   string
		target map[string]any
		source map[string]any
		want   map[string]any
	}{
		{
			name:   "disjoint keys",
			target: map[string]any{"a": int64(1)},
			source: map[string]any{"b": int64(2)},
			want:   map[string]any{"a": int64(1), "b": int64(2)},
		},
		{
			name:   "scalar replaces scalar",
			target: map[string]any{"a": int64(1)},
			source: map[string]any{"a": int64(9)},
			want:   map[string]any{"a": int64(9)},
		},
		{
			name:   "scalar replaces nested mapping",
			target: map[string]any{"a": map[string]any{"b": int64(1)}},
			source: map[string]any{"a": int64(5)},
			want:   map[string]any{"a": int64(5)},
		},
		{
			name:   "mapping replaces scalar wholesale",
			target: map[string]any{"a": int64(5)},
			source: map[string]any{"a": map[string]any{"b": int64(1)}},
			want:   map[string]any{"a": map[string]any{"b": int64(1)}},
		},
		{
			name:   "both mappings recurse",
			target: map[string]any{"a": map[string]any{"b": int64(1), "c": int64(2)}},
			source: map[string]any{"a": map[string]any{"b": int64(9)}},
			want:   map[string]any{"a": map[string]any{"b": int64(9), "c": int64(2)}},
		},
		{
			name: "deep recursion",
			target: map[string]any{
				"a": map[string]any{"b": map[string]any{"x": int64(1), "y": int64(2)}},
			},
			source: map[string]any{
				"a": map[string]any{"b": map[string]any{"y": int64(7)}},
			},
			want: map[string]any{
				"a": map[string]any{"b": map[string]any{"x": int64(1), "y": int64(7)}},
			},
		},
		{
			name:   "nil source copies target",
			target: map[string]any{"a": map[string]any{"b": int64(1)}},
			source: nil,
			want:   map[string]any{"a": map[string]any{"b": int64(1)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.target, tt.source)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeIdempotentOnSelf(t *testing.T) {
	x := map[string]any{
		"a": int64(1),
		"b": map[string]any{"c": int64(2), "d": map[string]any{"e": "v"}},
	}
	if diff := cmp.Diff(x, Merge(x, x)); diff != "" {
		t.Errorf("Merge(X, X) != X (-want +got):\n%s", diff)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	target := map[string]any{"a": map[string]any{"b": int64(1)}}
	source := map[string]any{"a": map[string]any{"b": int64(9)}, "c": int64(3)}

	got := Merge(target, source)

	if diff := cmp.Diff(map[string]any{"a": map[string]any{"b": int64(1)}}, target); diff != "" {
		t.Errorf("target mutated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"a": map[string]any{"b": int64(9)}, "c": int64(3)}, source); diff != "" {
		t.Errorf("source mutated (-want +got):\n%s", diff)
	}

	// The result must not alias nested maps of either input.
	got["a"].(map[string]any)["b"] = int64(42)
	if target["a"].(map[string]any)["b"] != int64(1) {
		t.Error("result aliases target's nested map")
	}
	if source["a"].(map[string]any)["b"] != int64(9) {
		t.Error("result aliases source's nested map")
	}
}
