package secret

import "sync"

// Disclosure guards the optional decryption secret attached to a submission.
// The stored value survives hiding; only visibility decides whether it is
// ever used. Current is the one sanctioned read for payload assembly.
type Disclosure struct {
	mu      sync.Mutex
	visible bool
	value   string
}

func New() *Disclosure {
	return &Disclosure{}
}

// SetVisible shows or hides the secret input. Hiding does not clear the
// stored value.
func (d *Disclosure) SetVisible(visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.visible = visible
}

// SetValue stores the secret text.
func (d *Disclosure) SetValue(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value = value
}

// Visible reports whether the secret input is shown.
func (d *Disclosure) Visible() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.visible
}

// Current returns the effective secret for a submission: the stored value
// when visible, the empty string otherwise.
func (d *Disclosure) Current() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.visible {
		return ""
	}
	return d.value
}
