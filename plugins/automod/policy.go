package automod

// DefaultMaxWarnings is the count at which removal replaces warning
const DefaultMaxWarnings = 10

type Action int

const (
	// Ignore means no moderation applies
	Ignore Action = iota
	// WarnAndDelete removes the message and issues a warning
	WarnAndDelete
	// RemoveUser removes the message and the author
	RemoveUser
)

// Decision is the outcome of the escalation policy for one message
type Decision struct {
	Action Action
	// Count is the warning count after this violation
	Count int
	// Final marks the last warning before removal
	Final bool
}

// Decide is the escalation policy. It is a pure function of its inputs
// so it can be tested without any platform in the loop; executing the
// side effects is the caller's job.
func Decide(matched, exempt bool, priorCount, max int) Decision {
	if exempt || !matched {
		return Decision{Action: Ignore}
	}
	n := priorCount + 1
	if n >= max {
		return Decision{Action: RemoveUser, Count: n}
	}
	return Decision{
		Action: WarnAndDelete,
		Count:  n,
		Final:  n >= max-1,
	}
}
