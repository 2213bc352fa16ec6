// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"fmt"
	"time"
)

// Every deadline lands on the sweep tick so invite and account expiry share one clock.
const (
	DeadlineHour   = 23
	DeadlineMinute = 50
	DateLayout     = "2006-01-02"
)

// PinDeadline moves t to 23:50 of its calendar date in loc.
func PinDeadline(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), DeadlineHour, DeadlineMinute, 0, 0, loc)
}

// ParseDeadlineDate parses a YYYY-MM-DD date and pins it to 23:50.
func ParseDeadlineDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want %s: %w", s, DateLayout, err)
	}
	return PinDeadline(d, loc), nil
}

// EntitlementDeadline returns the deadline days calendar days after now.
func EntitlementDeadline(now time.Time, days int, loc *time.Location) time.Time {
	return PinDeadline(now.In(loc).AddDate(0, 0, days), loc)
}

// IsDue reports whether now has reached the deadline of expiresAt's calendar date.
func IsDue(expiresAt, now time.Time, loc *time.Location) bool {
	return !now.Before(PinDeadline(expiresAt, loc))
}

// DaysRemaining counts whole days left until deadline. Zero means the
// deadline falls within the next 24 hours.
func DaysRemaining(deadline, now time.Time) int {
	if !deadline.After(now) {
		return 0
	}
	return int(deadline.Sub(now) / (24 * time.Hour))
}

// LoadLocation resolves an IANA zone name; empty or "Local" means the host zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}
