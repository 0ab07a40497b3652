package models

import "time"

// Video is a generated video published to object storage.
type Video struct {
	ID        string     `json:"id"`
	JobID     string     `json:"job_id"`
	Provider  string     `json:"provider"`
	ObjectKey string     `json:"object_key"`
	Mime      string     `json:"mime"`
	SizeBytes int64      `json:"size_bytes"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
