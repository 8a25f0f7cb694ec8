package domain

import "time"

// AdView is a single ad impression. Book is whatever the client reported and
// is not checked against the catalog.
type AdView struct {
	ID        int64
	Username  string
	Book      string
	Timestamp time.Time
}
