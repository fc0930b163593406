package domain

import (
	"encoding"
	"time"
)

type TaskStatus string

const (
	StatusSubmitted TaskStatus = "SUBMITTED"
	StatusAnalyzing TaskStatus = "ANALYZING"
	StatusDone      TaskStatus = "DONE"
)

type Task struct {
	ID              string   `json:"id"`
	Filename        string   `json:"filename"`
	SizeBytes       int64    `json:"sizeBytes"`
	DisabledWorkers []string `json:"disabledWorkers,omitempty"`
	// Password is the decryption secret forwarded to the analysis workers.
	// It is persisted with the task record but never serialized back to clients.
	Password    string     `json:"-"`
	Seed        string     `json:"seed,omitempty"`
	Status      TaskStatus `json:"status"`
	SubmittedAt time.Time  `json:"submittedAt"`
}

var (
	_ encoding.BinaryMarshaler = TaskStatus("")
	_ encoding.TextMarshaler   = TaskStatus("")
)

func (s TaskStatus) MarshalBinary() ([]byte, error) { return []byte(string(s)), nil }
func (s TaskStatus) MarshalText() ([]byte, error)   { return []byte(string(s)), nil }
