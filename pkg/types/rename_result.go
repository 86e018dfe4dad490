package types

import (
	"fmt"

	"namescrub/internal/errors"
)

// RenameResult holds the outcome of a rename attempt for a single file
type RenameResult struct {
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path"`
	Renamed         bool   `json:"renamed"`
	DryRun          bool   `json:"dry_run,omitempty"`
	Size            int64  `json:"size"`
	Error           error  `json:"error,omitempty"`
}

// RunSummary tallies one pass over a directory. Matched counts entries that
// passed the extension filter whatever their outcome. Bytes covers renamed
// files, or in a dry run the files that would be.
type RunSummary struct {
	Folder  string `json:"folder"`
	Matched int    `json:"matched"`
	Renamed int    `json:"renamed"`
	Failed  int    `json:"failed"`

	// Collisions counts failures caused by the clean name being taken.
	Collisions int `json:"collisions"`

	Bytes   int64          `json:"bytes"`
	Results []RenameResult `json:"results"`
}

// Add records r in the summary.
func (s *RunSummary) Add(r RenameResult) {
	s.Matched++
	switch {
	case r.Error != nil:
		s.Failed++
		if errors.IsDestinationExists(r.Error) {
			s.Collisions++
		}
	case r.Renamed:
		s.Renamed++
		s.Bytes += r.Size
	case r.DryRun:
		s.Bytes += r.Size
	}
	s.Results = append(s.Results, r)
}

// String returns a one-line human-readable tally
func (s RunSummary) String() string {
	if s.Collisions > 0 {
		return fmt.Sprintf("%d matched, %d renamed, %d failed (%d name collisions)",
			s.Matched, s.Renamed, s.Failed, s.Collisions)
	}
	return fmt.Sprintf("%d matched, %d renamed, %d failed", s.Matched, s.Renamed, s.Failed)
}
