package domain

import "fmt"

// BatchResult summarises one scraping run. It is built once the run ends and never mutated.
type BatchResult struct {
	Downloaded int      `json:"downloaded"`
	Errors     int      `json:"errors"`
	Attempted  int      `json:"attempted"`
	Files      []string `json:"files,omitempty"`
}

func (r BatchResult) String() string {
	return fmt.Sprintf("downloaded %d of %d attempted images (%d errors)", r.Downloaded, r.Attempted, r.Errors)
}
