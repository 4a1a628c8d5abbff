package store

import "time"

// RunFilter narrows production-run queries. To is inclusive; a zero To
// queries the single day From. Nil LineID and empty ShiftName match all.
type RunFilter struct {
	From          time.Time
	To            time.Time
	LineID        *int64
	ShiftName     string
	CompletedOnly bool
	// WithoutReport keeps only runs that have no report row yet.
	WithoutReport bool
}

// DowntimeRow is one grouped downtime aggregate: a (code, code reason,
// event reason, machine) bucket with its total duration and occurrence count.
type DowntimeRow struct {
	Code            string `json:"code"`
	CodeReason      string `json:"codeReason"`
	Reason          string `json:"reason"`
	MachineName     string `json:"machineName"`
	TotalDuration   int64  `json:"totalDuration"`
	OccurrenceCount int64  `json:"occurrenceCount"`
}

// DowntimeFilter narrows grouped downtime queries.
type DowntimeFilter struct {
	From      time.Time
	To        time.Time
	LineID    *int64
	MachineID *int64
	Limit     int
}
