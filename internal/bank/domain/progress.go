package domain

// Progress is a transfer progress event for a bank fetch.
type Progress struct {
	Loaded           int64
	Total            int64 // zero when the length is unknown
	LengthComputable bool
}

// Fraction returns Loaded/Total, or -1 when the total is unknown.
func (p Progress) Fraction() float64 {
	if !p.LengthComputable || p.Total <= 0 {
		return -1
	}
	return float64(p.Loaded) / float64(p.Total)
}
