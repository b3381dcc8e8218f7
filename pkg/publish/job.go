package publish

import (
	"redpilot/pkg/browser"
)

// Job describes one image post to publish for an account.
type Job struct {
	AccountID  string
	Title      string
	Body       string
	Images     []string
	CoverImage string
}

// Validate rejects jobs before any browser interaction happens.
func (j *Job) Validate() error {
	if j.AccountID == "" {
		return &browser.ValidationError{Reason: "account id is required"}
	}
	if len(j.Images) == 0 {
		return &browser.ValidationError{Reason: "at least one image is required as the cover"}
	}
	return nil
}

// ResolveCover returns the explicit cover image, or the first image
// when none was given.
func (j *Job) ResolveCover() string {
	if j.CoverImage != "" {
		return j.CoverImage
	}
	return j.Images[0]
}

// RemainingImages returns the job's images with the resolved cover
// removed exactly once, by value, preserving the order of the rest.
func (j *Job) RemainingImages() []string {
	cover := j.ResolveCover()
	remaining := make([]string, 0, len(j.Images))

	removed := false
	for _, image := range j.Images {
		if !removed && image == cover {
			removed = true
			continue
		}
		remaining = append(remaining, image)
	}
	return remaining
}
