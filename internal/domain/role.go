package domain

// Role identifies the author of a chat turn. Exactly two variants exist;
// normalization happens once, at the memory store boundary.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole normalizes an inbound role tag into the two-variant enum.
// "user" and "human" map to RoleUser; any other tag, including unknown
// ones, maps to RoleAssistant. This mirrors upstream behavior for
// legacy rows written with "ai".
func ParseRole(tag string) Role {
	switch tag {
	case "user", "human":
		return RoleUser
	default:
		return RoleAssistant
	}
}

func (r Role) String() string {
	return string(r)
}
