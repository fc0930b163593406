package domain

// SubmitResult is the intake endpoint's response body. On success TaskID and
// Link are always set; Seed and Lifetime only when the submitter asked for a
// shareable seed. On failure Error carries a human-readable message that
// clients must treat as untrusted text.
type SubmitResult struct {
	Success  bool   `json:"success"`
	TaskID   string `json:"taskId,omitempty"`
	Link     string `json:"link,omitempty"`
	Seed     string `json:"seed,omitempty"`
	Lifetime int64  `json:"lifetime,omitempty"`
	Error    string `json:"error,omitempty"`
}

// PageContext is the configuration the submission page consumes: the size
// cap, the selectable worker catalog and the flag revealing the advanced
// selection panel. Disclaimers are presentation-only strings.
type PageContext struct {
	MaxFileSizeMB     int      `json:"maxFileSizeMB"`
	Workers           []Worker `json:"workers"`
	AdvancedSelection bool     `json:"advancedSelection"`
	Disclaimers       []string `json:"disclaimers,omitempty"`
}

// StreamStats reports intake queue depth for the admin surface.
type StreamStats struct {
	StreamLength   int64 `json:"streamLength"`
	TrackedTasks   int64 `json:"trackedTasks"`
	EnabledWorkers int64 `json:"enabledWorkers"`
}
