package steps

// Metadata keys surfaced in workflow reports.
const (
	MetaOutcome   = "outcome"
	MetaHookPath  = "hookPath"
	MetaTool      = "tool"
	MetaBackedUp  = "backedUp"
	MetaRestored  = "restored"
	MetaArtifact  = "artifact"
	MetaSkippedBy = "skippedBecause"
)
