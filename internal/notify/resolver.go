package notify

import "sort"

// Policy selects which role memberships feed a notification's recipient set.
type Policy string

const (
	// PolicyOperationalWithAuthor targets admins, devs and managers plus the acting user.
	PolicyOperationalWithAuthor Policy = "operational_with_author"
	// PolicyOperational targets admins, devs and managers.
	PolicyOperational Policy = "operational"
	// PolicyUserScopedWithAuthor targets admins and devs plus the acting user.
	PolicyUserScopedWithAuthor Policy = "user_scoped_with_author"
	// PolicyUserScoped targets admins and devs.
	PolicyUserScoped Policy = "user_scoped"
)

func (p Policy) includesManagers() bool {
	return p == PolicyOperational || p == PolicyOperationalWithAuthor
}

func (p Policy) includesAuthor() bool {
	return p == PolicyOperationalWithAuthor || p == PolicyUserScopedWithAuthor
}

// RoleSets carries the current role memberships. Nil slices are valid and
// treated as empty.
type RoleSets struct {
	Admins   []int64
	Devs     []int64
	Managers []int64
}

// Resolver maps role memberships and an optional acting user to a recipient
// id set. Resolution never fails; at worst it yields an empty set, which the
// store rejects later.
type Resolver struct {
	fallbackID int64
}

// NewResolver builds a Resolver with the configured master-admin fallback id.
// A non-positive fallback disables the fallback rule.
func NewResolver(fallbackID int64) *Resolver {
	return &Resolver{fallbackID: fallbackID}
}

// Resolve produces the recipient id set for the given policy. The result is
// deduplicated and sorted; order carries no meaning.
//
// Two guards apply to every policy: an empty admins set injects the
// configured fallback id, and the *-with-author policies force-include a
// positive author id if the set would otherwise end up empty.
func (r *Resolver) Resolve(sets RoleSets, authorID int64, policy Policy) []int64 {
	members := make(map[int64]struct{})

	addAll(members, sets.Admins)
	addAll(members, sets.Devs)
	if policy.includesManagers() {
		addAll(members, sets.Managers)
	}

	if policy.includesAuthor() && authorID > 0 {
		members[authorID] = struct{}{}
	}

	if len(sets.Admins) == 0 && r.fallbackID > 0 {
		members[r.fallbackID] = struct{}{}
	}

	// Last-resort guard: when nothing else is available the acting user is
	// still a better recipient than nobody.
	if len(members) == 0 && policy.includesAuthor() && authorID != 0 {
		members[authorID] = struct{}{}
	}

	if len(members) == 0 {
		return nil
	}

	out := make([]int64, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func addAll(dst map[int64]struct{}, ids []int64) {
	for _, id := range ids {
		if id > 0 {
			dst[id] = struct{}{}
		}
	}
}
