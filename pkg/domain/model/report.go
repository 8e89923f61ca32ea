package model

import "time"

// SkippedLink is a mod or (mod, file) pair that could not be resolved.
// FileID is zero when the file listing of the mod itself failed.
type SkippedLink struct {
	ModID  ModID
	FileID FileID
	Reason string
}

// ResolveReport is the result of resolving download links for one domain
type ResolveReport struct {
	Domain  GameDomain
	Links   LinkSet
	Skipped []SkippedLink
}

// DownloadStatus is the final state of one download record
type DownloadStatus string

const (
	DownloadSucceeded DownloadStatus = "succeeded"
	DownloadFailed    DownloadStatus = "failed"
	DownloadCancelled DownloadStatus = "cancelled"
)

// DownloadOutcome is the result of downloading one link record
type DownloadOutcome struct {
	LinkKey
	URL      string
	Status   DownloadStatus
	Attempts int    // number of transfer attempts issued
	Path     string // destination file path
	Reason   string // last failure reason, empty on success
}

// DownloadReport enumerates the outcome of every record of a download batch
type DownloadReport struct {
	Domain   GameDomain
	Outcomes []DownloadOutcome
	Elapsed  time.Duration
}

// Count returns the number of outcomes with the status
func (r *DownloadReport) Count(status DownloadStatus) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Failures returns outcomes that did not succeed
func (r *DownloadReport) Failures() []DownloadOutcome {
	if r == nil {
		return nil
	}
	var failed []DownloadOutcome
	for _, o := range r.Outcomes {
		if o.Status != DownloadSucceeded {
			failed = append(failed, o)
		}
	}
	return failed
}

// FolderAction is what the reconciler did with one mod folder
type FolderAction string

const (
	FolderRenamed   FolderAction = "renamed"
	FolderMerged    FolderAction = "merged"
	FolderUnchanged FolderAction = "unchanged"
	FolderSkipped   FolderAction = "skipped"
	FolderFailed    FolderAction = "failed"
)

// FolderOutcome is the result of reconciling one identifier-named folder
type FolderOutcome struct {
	ModID       ModID
	Source      string
	Destination string
	Action      FolderAction
	Reason      string
}

// ReconcileReport enumerates the outcome of every candidate folder of a domain
type ReconcileReport struct {
	Domain   GameDomain
	Outcomes []FolderOutcome
}

// Count returns the number of outcomes with the action
func (r *ReconcileReport) Count(action FolderAction) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, o := range r.Outcomes {
		if o.Action == action {
			n++
		}
	}
	return n
}

// DomainReport collects the reports of one domain within a run. Reports of
// steps that were not executed are nil.
type DomainReport struct {
	Domain    GameDomain
	Resolve   *ResolveReport
	Download  *DownloadReport
	Reconcile *ReconcileReport
	LinkFile  string
	Err       error
}

// RunSummary is the result of one workflow run
type RunSummary struct {
	RunID     string
	Workflow  string
	StartedAt time.Time
	Elapsed   time.Duration
	Domains   []*DomainReport
}

// Failed returns true if any domain ended with an error or any item failed
func (s *RunSummary) Failed() bool {
	for _, d := range s.Domains {
		if d.Err != nil {
			return true
		}
		if d.Download != nil && len(d.Download.Failures()) > 0 {
			return true
		}
		if d.Reconcile != nil && d.Reconcile.Count(FolderFailed) > 0 {
			return true
		}
	}
	return false
}
