package entities

import "time"

// InstallReport contains the result of one install run
type InstallReport struct {
	Action           Action
	Release          *Release
	DownloadDuration time.Duration
	ExtractDuration  time.Duration
	PipDuration      time.Duration
	TotalDuration    time.Duration
	CacheHit         bool
	RequirementsRun  int
	Success          bool
	Error            error
}
