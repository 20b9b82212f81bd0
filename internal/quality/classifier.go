package quality

import "strings"

// Role is a bit set of what a column name suggests about its content
type Role uint8

const (
	RoleIdentifier     Role = 1 << iota // id / code / key
	RoleDate                            // date / time
	RoleUpdateMarker                    // update / modified / change / timestamp
	RoleForwardLooking                  // future / forecast
)

// RoleNone means no heuristic matched
const RoleNone Role = 0

var roleTerms = []struct {
	role  Role
	terms []string
}{
	{RoleIdentifier, []string{"id", "code", "key"}},
	{RoleDate, []string{"date", "time"}},
	{RoleUpdateMarker, []string{"update", "modified", "change", "timestamp"}},
	{RoleForwardLooking, []string{"future", "forecast"}},
}

// Classify infers column roles from a case-insensitive substring match on the name.
// The match is deliberately loose: "Valid" contains "id" and is an identifier.
func Classify(name string) Role {
	lower := strings.ToLower(name)
	var r Role
	for _, rt := range roleTerms {
		for _, term := range rt.terms {
			if strings.Contains(lower, term) {
				r |= rt.role
				break
			}
		}
	}
	return r
}

// Has reports whether every bit of q is set
func (r Role) Has(q Role) bool { return q != 0 && r&q == q }

func (r Role) IsIdentifier() bool     { return r.Has(RoleIdentifier) }
func (r Role) IsDate() bool           { return r.Has(RoleDate) }
func (r Role) IsUpdateMarker() bool   { return r.Has(RoleUpdateMarker) }
func (r Role) IsForwardLooking() bool { return r.Has(RoleForwardLooking) }

// String lists the set roles, e.g. "date|update"
func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	var parts []string
	if r.IsIdentifier() {
		parts = append(parts, "identifier")
	}
	if r.IsDate() {
		parts = append(parts, "date")
	}
	if r.IsUpdateMarker() {
		parts = append(parts, "update")
	}
	if r.IsForwardLooking() {
		parts = append(parts, "forward")
	}
	return strings.Join(parts, "|")
}
