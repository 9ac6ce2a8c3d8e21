// Package system provides the wall-clock implementation of spider.Clock.
package system

import "time"

// Clock returns the real current time.
type Clock struct{}

// Now returns time.Now in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
