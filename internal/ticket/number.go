package ticket

import (
	"time"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/uniuri"
)

const (
	// numberRandomLen is the length of the random component of a ticket number.
	numberRandomLen = 6

	// numberTimeLayout is the timestamp component of a ticket number.
	numberTimeLayout = "20060102-150405"

	// numberTimezone is the fixed local timezone ticket numbers are stamped in,
	// regardless of server timezone.
	numberTimezone = "America/El_Salvador"
)

// numberChars is the charset of the random component.
var numberChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// numberLocation is resolved once at startup. Falls back to UTC when the
// timezone database is unavailable.
var numberLocation = loadNumberLocation()

func loadNumberLocation() *time.Location {
	loc, err := time.LoadLocation(numberTimezone)
	if err != nil {
		return time.UTC
	}

	return loc
}

// NewNumber generates a ticket number of the form
// TKT-XXXXXX-YYYYMMDD-HHmmss. Uniqueness rests on the 36^6 random keyspace
// per second-resolution timestamp; collisions are not re-checked.
func NewNumber(now time.Time) string {
	return "TKT-" +
		uniuri.NewLenChars(numberRandomLen, numberChars) + "-" +
		now.In(numberLocation).Format(numberTimeLayout)
}
