package domain

// Worker is the descriptor one analysis module advertises through the
// catalog. Replicas is a capacity signal: zero means the worker is not
// running anywhere and must stay invisible to submitters.
type Worker struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"displayName,omitempty" yaml:"display_name"`
	Description string `json:"description,omitempty" yaml:"description"`
	Replicas    int    `json:"replicas" yaml:"replicas"`
}
