package process

import "time"

func OverloadTimestamp(overload func() time.Time) func() {
	timestampRef := Timestamp
	Timestamp = overload
	return func() { Timestamp = timestampRef }
}
