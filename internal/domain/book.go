package domain

import "time"

// Book is a catalog entry pointing at the stored book file and cover.
type Book struct {
	ID        int64
	Title     string
	Author    string
	Filename  string
	Cover     string
	CreatedAt time.Time
}
