package models

import "time"

// HolidayType distinguishes public holidays from restricted ones.
type HolidayType string

const (
	HolidayPublic     HolidayType = "PUBLIC"
	HolidayRestricted HolidayType = "RESTRICTED"
)

// Holiday is a static calendar entry. Reference data for one year;
// immutable at runtime.
type Holiday struct {
	Date time.Time   `db:"date" json:"date"`
	Name string      `db:"name" json:"name"`
	Type HolidayType `db:"type" json:"type"`
}
