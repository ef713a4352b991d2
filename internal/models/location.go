/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "strings"

// Location is one of the fixed monitored rooms.
type Location string

const (
	LocationRoom       Location = "Room"
	LocationWashRoom   Location = "WashRoom"
	LocationKitchen    Location = "Kitchen"
	LocationLivingroom Location = "Livingroom"
	LocationOffice     Location = "Office"
	LocationBasement   Location = "Basement"
)

var allLocations = []Location{
	LocationRoom,
	LocationWashRoom,
	LocationKitchen,
	LocationLivingroom,
	LocationOffice,
	LocationBasement,
}

// AllLocations returns the recognized locations in a stable order.
func AllLocations() []Location {
	out := make([]Location, len(allLocations))
	copy(out, allLocations)
	return out
}

// ParseLocation maps a schedule value onto a known location.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseLocation(s string) (Location, bool) {
	s = strings.TrimSpace(s)
	for _, loc := range allLocations {
		if strings.EqualFold(string(loc), s) {
			return loc, true
		}
	}
	return "", false
}

func (l Location) String() string {
	return string(l)
}
