package notify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const fallbackID = int64(1)

func TestResolvePolicies(t *testing.T) {
	sets := RoleSets{
		Admins:   []int64{10, 11},
		Devs:     []int64{20},
		Managers: []int64{30},
	}

	resolver := NewResolver(fallbackID)

	tests := []struct {
		name     string
		policy   Policy
		authorID int64
		want     []int64
	}{
		{"operational with author", PolicyOperationalWithAuthor, 40, []int64{10, 11, 20, 30, 40}},
		{"operational", PolicyOperational, 40, []int64{10, 11, 20, 30}},
		{"user scoped with author", PolicyUserScopedWithAuthor, 40, []int64{10, 11, 20, 40}},
		{"user scoped", PolicyUserScoped, 40, []int64{10, 11, 20}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, resolver.Resolve(sets, tc.authorID, tc.policy))
		})
	}
}

func TestResolveDeduplicatesAuthorAlreadyPresent(t *testing.T) {
	sets := RoleSets{
		Admins: []int64{10},
		Devs:   []int64{20},
	}

	resolver := NewResolver(fallbackID)

	with := resolver.Resolve(sets, 20, PolicyUserScopedWithAuthor)
	without := resolver.Resolve(sets, 20, PolicyUserScoped)
	require.Equal(t, without, with)
	require.Equal(t, []int64{10, 20}, with)
}

func TestResolveFallbackWhenNoAdmins(t *testing.T) {
	sets := RoleSets{Devs: []int64{20}, Managers: []int64{30}}
	resolver := NewResolver(fallbackID)

	for _, policy := range []Policy{
		PolicyOperationalWithAuthor,
		PolicyOperational,
		PolicyUserScopedWithAuthor,
		PolicyUserScoped,
	} {
		got := resolver.Resolve(sets, 0, policy)
		require.Contains(t, got, fallbackID, "policy %s", policy)
	}
}

func TestResolveEmptySetsAndInvalidAuthor(t *testing.T) {
	resolver := NewResolver(fallbackID)

	for _, authorID := range []int64{0, -7} {
		got := resolver.Resolve(RoleSets{}, authorID, PolicyOperationalWithAuthor)
		require.Equal(t, []int64{fallbackID}, got)

		got = resolver.Resolve(RoleSets{}, authorID, PolicyUserScopedWithAuthor)
		require.Equal(t, []int64{fallbackID}, got)
	}
}

func TestResolveNilSetsTreatedAsEmpty(t *testing.T) {
	resolver := NewResolver(fallbackID)
	got := resolver.Resolve(RoleSets{Admins: nil, Devs: nil, Managers: nil}, 5, PolicyOperationalWithAuthor)
	require.Equal(t, []int64{fallbackID, 5}, got)
}

func TestResolveWithoutFallbackConfigured(t *testing.T) {
	resolver := NewResolver(0)

	// No admins and no fallback: resolution degrades to whatever is left.
	got := resolver.Resolve(RoleSets{Devs: []int64{20}}, 0, PolicyOperational)
	require.Equal(t, []int64{20}, got)

	// Author is the only signal left for the *-with-author variants.
	got = resolver.Resolve(RoleSets{}, 40, PolicyUserScopedWithAuthor)
	require.Equal(t, []int64{40}, got)

	// Nothing available at all yields an empty set; the store rejects it later.
	require.Empty(t, resolver.Resolve(RoleSets{}, 0, PolicyOperational))
}
