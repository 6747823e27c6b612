package models

import "time"

// Repository is a tracked code repository.
type Repository struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Path         string     `json:"path"`
	Language     string     `json:"language"`
	RepoURL      string     `json:"repo_url,omitempty"`
	LastAnalyzed *time.Time `json:"last_analyzed,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
