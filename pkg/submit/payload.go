package submit

// Payload is the snapshot dispatched for one upload. It is assembled exactly
// once, when the upload enters its in-flight phase, and never mutated
// afterwards: selection or secret changes made while the request is on the
// wire affect later uploads only.
type Payload struct {
	Filename        string
	File            []byte
	DisabledWorkers []string
	Secret          string
	CSRFToken       string
	ValiditySeconds int64
}
