package models

// ProductStats counts token records, optionally for one vendor.
type ProductStats struct {
	Total   int64
	Flagged int64
	ByState map[LifecycleState]int64
}

// ScanStats counts history rows by outcome.
type ScanStats struct {
	Total     int64
	ByOutcome map[Outcome]int64
}

// DashboardStats is the overview shown to admins (all vendors) and to a
// vendor (own products only).
type DashboardStats struct {
	Products ProductStats
	Scans    ScanStats
}
