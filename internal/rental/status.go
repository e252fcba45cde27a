package rental

type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusShipping  Status = "shipping"
	StatusDelivered Status = "delivered"
	StatusReturning Status = "returning"
	StatusReturned  Status = "returned"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// preparing/shipping/returning masih ada di enum (data lama dari flow admin
// sebelumnya) tapi tidak pernah jadi target transisi; reset yang menangani.
var validNext = map[Status]map[Status]bool{
	StatusDraft:     {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered: {StatusReturned: true, StatusCompleted: true},
	StatusReturned:  {StatusCompleted: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusConfirmed, StatusPreparing, StatusShipping,
		StatusDelivered, StatusReturning, StatusReturned, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
