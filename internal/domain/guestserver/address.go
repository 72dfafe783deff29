package guestserver

import (
	"net/netip"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Address represents an address assigned to a guest server. All fields
// apart from the identifiers are optional; an empty string means the
// value has not been assigned yet.
type Address struct {
	ID        uuid.UUID
	ServerID  uuid.UUID
	CreatedAt time.Time
	IPAddress string
	Hostname  string
	Netmask   string
	Gateway   string
}

// SortAddresses orders addresses by IP address first, hostname second,
// with unassigned values at the end. IP addresses compare numerically,
// so 10.0.0.9 sorts before 10.0.0.10. The input is not modified.
func SortAddresses(addresses []Address) []Address {
	sorted := make([]Address, len(addresses))
	copy(sorted, addresses)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]

		ipA, okA := parseIP(a.IPAddress)
		ipB, okB := parseIP(b.IPAddress)
		if okA != okB {
			return okA
		}
		if okA && ipA != ipB {
			return ipA.Compare(ipB) < 0
		}
		if (a.Hostname == "") != (b.Hostname == "") {
			return a.Hostname != ""
		}
		return a.Hostname < b.Hostname
	})

	return sorted
}

func parseIP(s string) (netip.Addr, bool) {
	if s == "" {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr, true
}
