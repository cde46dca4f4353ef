package config

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func asSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}

// TestUnionIsCommutativeAndIdempotent checks invariant 7 (spec.md §8): merging
// allowed_domains/forward_env_keys across config layers is commutative and
// idempotent, regardless of draw order or duplicate entries.
func TestUnionIsCommutativeAndIdempotent(t *testing.T) {
	gen := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 0, 10)

	rapid.Check(t, func(rt *rapid.T) {
		a := gen.Draw(rt, "a")
		b := gen.Draw(rt, "b")

		ab := union(a, b)
		ba := union(b, a)
		require.Equal(rt, asSet(ab), asSet(ba), "union must be commutative as a set")

		require.Equal(rt, asSet(ab), asSet(union(ab, ab)), "union must be idempotent")

		sortedAB := append([]string(nil), ab...)
		sort.Strings(sortedAB)
		for i := 1; i < len(sortedAB); i++ {
			require.NotEqual(rt, sortedAB[i-1], sortedAB[i], "union must not contain duplicates")
		}
	})
}
