// ABOUTME: User and DeviceSource models.
// ABOUTME: Users own every other entity; device sources tag observations.
package models

import "time"

// User is the owner of all recorded and derived state.
// A user is created on first record and cascade-deleted with dependents.
type User struct {
	ID        string
	Name      string
	Timezone  string
	CreatedAt time.Time
}

// NewUser creates a User with the given id and UTC default timezone.
func NewUser(id string) *User {
	return &User{
		ID:        id,
		Timezone:  "UTC",
		CreatedAt: time.Now().UTC(),
	}
}

// Location returns the user's time.Location, falling back to UTC when
// the stored timezone name does not resolve.
func (u *User) Location() *time.Location {
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DeviceSource registers a device that delivers observations.
type DeviceSource struct {
	UserID      string
	DeviceName  string
	DeviceType  string
	SourceLabel string
	CreatedAt   time.Time
}
