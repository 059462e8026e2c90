package domain

import "time"

// Entry is a registered bank together with where it came from.
type Entry struct {
	ID       string
	URL      string // locator the bank was fetched from; base for relative note URLs
	Bank     *Bank
	LoadedAt time.Time
}
