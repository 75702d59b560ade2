package domain

import "time"

// Category classifies service requests. DefaultSLAHours, when set, is captured
// onto each request at creation time; later category edits never touch
// existing requests.
type Category struct {
	ID              string
	Name            string
	Description     *string
	DefaultSLAHours *int
	Active          bool
	CreatedAt       time.Time
}
