package user

// Status is the display status of a user account.
type Status string

const (
	StatusActive        Status = "active"
	StatusUninitialized Status = "uninitialized"
	StatusSuspended     Status = "suspended"
	StatusDeleted       Status = "deleted"
)

// StatusFilter narrows a user listing to accounts in one status.
type StatusFilter int

const (
	FilterNone StatusFilter = iota // no filtering
	FilterActive
	FilterUninitialized
	FilterSuspended
	FilterDeleted
)

// ParseStatusFilter maps a query-string value to a StatusFilter.
// Unknown values fall back to FilterNone rather than failing, so stale
// links keep working.
func ParseStatusFilter(name string) StatusFilter {
	switch name {
	case "active":
		return FilterActive
	case "uninitialized":
		return FilterUninitialized
	case "suspended":
		return FilterSuspended
	case "deleted":
		return FilterDeleted
	default:
		return FilterNone
	}
}

// String returns the query-string name of the filter. FilterNone yields
// the empty string.
func (f StatusFilter) String() string {
	switch f {
	case FilterActive:
		return "active"
	case FilterUninitialized:
		return "uninitialized"
	case FilterSuspended:
		return "suspended"
	case FilterDeleted:
		return "deleted"
	default:
		return ""
	}
}

// StatusCounts holds the number of users per status plus the overall total.
type StatusCounts struct {
	Total         int64
	Active        int64
	Uninitialized int64
	Suspended     int64
	Deleted       int64
}
