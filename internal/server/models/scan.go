package models

import "time"

// ScanEntry is one append-only presentation record. Entries keep the token
// string that was live when they were written, so rotation never re-points them.
type ScanEntry struct {
	ID            string
	ProductID     string
	VendorID      string
	Token         string
	Outcome       Outcome
	SourceAddress string
	Location      string
	UserAgent     string
	ScannedAt     time.Time
}

// PublicScan is the view of a scan shown to anonymous users: no addresses,
// no user agents.
type PublicScan struct {
	Outcome   Outcome
	Location  string
	ScannedAt time.Time
}

func (e ScanEntry) Public() PublicScan {
	return PublicScan{Outcome: e.Outcome, Location: e.Location, ScannedAt: e.ScannedAt}
}
