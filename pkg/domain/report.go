package domain

import "encoding"

// ReportStatus is the status a worker assigns to one sample. Order matters:
// severity grows towards ALERT, and a task's overall verdict is the worst
// status across its reports.
type ReportStatus string

const (
	ReportWaiting       ReportStatus = "WAITING"
	ReportRunning       ReportStatus = "RUNNING"
	ReportNotApplicable ReportStatus = "NOTAPPLICABLE"
	ReportDisabled      ReportStatus = "DISABLED"
	ReportError         ReportStatus = "ERROR"
	ReportClean         ReportStatus = "CLEAN"
	ReportWarn          ReportStatus = "WARN"
	ReportAlert         ReportStatus = "ALERT"
)

var reportSeverity = map[ReportStatus]int{
	ReportWaiting:       1,
	ReportRunning:       2,
	ReportNotApplicable: 3,
	ReportDisabled:      4,
	ReportError:         5,
	ReportClean:         6,
	ReportWarn:          7,
	ReportAlert:         8,
}

// Severity ranks statuses for verdict rollup; unknown strings rank lowest.
func (s ReportStatus) Severity() int { return reportSeverity[s] }

// Terminal reports do not change anymore; waiting/running ones still can.
func (s ReportStatus) Terminal() bool {
	return s != ReportWaiting && s != ReportRunning && s != ""
}

// WorstStatus returns the highest-severity status among reports, or
// ReportWaiting when there are none.
func WorstStatus(reports []Report) ReportStatus {
	worst := ReportWaiting
	for _, r := range reports {
		if r.Status.Severity() > worst.Severity() {
			worst = r.Status
		}
	}
	return worst
}

type Report struct {
	Worker string       `json:"worker"`
	Status ReportStatus `json:"status"`
}

// TaskView is what the result view serves: the task record, the per-worker
// reports collected so far and the rolled-up verdict.
type TaskView struct {
	Task    Task         `json:"task"`
	Reports []Report     `json:"reports,omitempty"`
	Overall ReportStatus `json:"overall"`
}

var (
	_ encoding.BinaryMarshaler = ReportStatus("")
	_ encoding.TextMarshaler   = ReportStatus("")
)

func (s ReportStatus) MarshalBinary() ([]byte, error) { return []byte(string(s)), nil }
func (s ReportStatus) MarshalText() ([]byte, error)   { return []byte(string(s)), nil }
