package submit

// State is one upload's lifecycle phase. Transitions are monotonic and
// one-directional: QUEUED -> UPLOADING -> (SUCCEEDED | FAILED). A failed
// upload stays failed; retrying means removing and re-adding the file.
type State string

const (
	StateQueued    State = "QUEUED"
	StateUploading State = "UPLOADING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
)

// FailureKind classifies terminal failures. All three are per-upload and
// never escalate past the affected file.
type FailureKind string

const (
	FailureNone FailureKind = ""
	// FailureSize: the file exceeds the configured maximum. Decided locally,
	// before any network traffic.
	FailureSize FailureKind = "SIZE_EXCEEDED"
	// FailureRejected: the service answered with a failure message. The
	// message is untrusted text.
	FailureRejected FailureKind = "REJECTED"
	// FailureNetwork: the service could not be reached at all.
	FailureNetwork FailureKind = "NETWORK"
)

// Upload is the visible state of one queued file. Values returned by the
// orchestrator are copies; the orchestrator owns the live record.
type Upload struct {
	ID        string      `json:"id"`
	Filename  string      `json:"filename"`
	SizeBytes int64       `json:"sizeBytes"`
	State     State       `json:"state"`
	Failure   FailureKind `json:"failure,omitempty"`
	// Message is the text shown against this upload's entry. On rejection it
	// is server-supplied and must be rendered as data, never as markup.
	Message string `json:"message,omitempty"`
	TaskID  string `json:"taskId,omitempty"`
}

// Terminal reports whether the upload reached a final state.
func (u Upload) Terminal() bool {
	return u.State == StateSucceeded || u.State == StateFailed
}
