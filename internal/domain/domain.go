// Package domain implements the small interned-string tag attached to
// every event and capability, used by stream entries as a user-visible
// filter key.
package domain

import "sync"

// Domain is an opaque tag identifying the logical source of an event or
// capability. The zero value is the unnamed default domain.
type Domain uint32

// None is the default domain assigned to an event that has not been
// tagged with a user-chosen name.
const None Domain = 0

var (
	mu       sync.Mutex
	byName   = map[string]Domain{"": None}
	byID     = []string{""}
)

// Intern returns the Domain for the given user-visible name, creating a
// new one if this name has not been seen before. Interning is stable for
// the lifetime of the process: the same name always yields the same Domain.
func Intern(name string) Domain {
	mu.Lock()
	defer mu.Unlock()
	if d, ok := byName[name]; ok {
		return d
	}
	d := Domain(len(byID))
	byID = append(byID, name)
	byName[name] = d
	return d
}

// Name returns the user-visible name a Domain was interned with, or ""
// if it is unknown or the default domain.
func Name(d Domain) string {
	mu.Lock()
	defer mu.Unlock()
	if int(d) >= len(byID) {
		return ""
	}
	return byID[d]
}
