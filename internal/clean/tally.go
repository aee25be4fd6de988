package clean

// RejectReason categorizes why a row was dropped during cleaning.
type RejectReason string

const (
	ReasonInvalid   RejectReason = "invalid"
	ReasonDuplicate RejectReason = "duplicate"
	ReasonOutlier   RejectReason = "outlier"
)

// Tally counts rows rejected by the cleaner, by reason. Rejections are
// expected and non-exceptional; the pipeline reports them per chunk.
type Tally struct {
	Invalid   int64
	Duplicate int64
	Outlier   int64
}

// Total returns the total number of rejected rows.
func (t Tally) Total() int64 {
	return t.Invalid + t.Duplicate + t.Outlier
}

// Add accumulates another tally into this one.
func (t *Tally) Add(other Tally) {
	t.Invalid += other.Invalid
	t.Duplicate += other.Duplicate
	t.Outlier += other.Outlier
}

// ByReason returns the tally as a reason-keyed map for reporting.
func (t Tally) ByReason() map[RejectReason]int64 {
	return map[RejectReason]int64{
		ReasonInvalid:   t.Invalid,
		ReasonDuplicate: t.Duplicate,
		ReasonOutlier:   t.Outlier,
	}
}
