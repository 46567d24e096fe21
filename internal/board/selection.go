package board

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// QueryKey is the URL query parameter that selects the active room.
const QueryKey = "roomId"

var (
	// ErrNoSelection means the query does not select a room.
	ErrNoSelection = errors.New("no room selected")
	// ErrInvalidSelection means the query selects a room the loaded collection does not have.
	ErrInvalidSelection = errors.New("selected room is out of range")
	// ErrNotLoaded means rooms have not been fetched yet.
	ErrNotLoaded = errors.New("rooms not loaded")
)

// ParseRoomID derives the selected room id from a query.
//
// The first roomId value is trimmed and parsed as a base-10 integer. Absent, empty,
// non-numeric, fractional and negative values select nothing.
func ParseRoomID(q url.Values) (int, bool) {
	if q == nil {
		return 0, false
	}
	vs, ok := q[QueryKey]
	if !ok || len(vs) == 0 {
		return 0, false
	}
	s := strings.TrimSpace(vs[0])
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// QueryFor returns a query selecting roomID.
func QueryFor(roomID int) url.Values {
	return url.Values{QueryKey: []string{strconv.Itoa(roomID)}}
}
