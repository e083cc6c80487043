package timeutil

// Totals accumulates tracked seconds split by billability
type Totals struct {
	TotalSeconds       int64 `json:"total_seconds"`
	BillableSeconds    int64 `json:"billable_seconds"`
	NonBillableSeconds int64 `json:"non_billable_seconds"`
	EntryCount         int   `json:"entry_count"`
}

// Add accumulates one entry's duration
func (t *Totals) Add(seconds int64, billable bool) {
	t.TotalSeconds += seconds
	if billable {
		t.BillableSeconds += seconds
	} else {
		t.NonBillableSeconds += seconds
	}
	t.EntryCount++
}

// Formatted returns the totals rendered as HH:MM:SS strings
func (t Totals) Formatted() map[string]string {
	return map[string]string{
		"total":        FormatHMS(t.TotalSeconds),
		"billable":     FormatHMS(t.BillableSeconds),
		"non_billable": FormatHMS(t.NonBillableSeconds),
	}
}
