package metrics

const (
	// StatusSucceed succeed
	StatusSucceed = "succeed"
	// StatusFailed failed
	StatusFailed = "failed"
	// StatusTimeout timeout
	StatusTimeout = "timeout"
	// StatusDiscarded result discarded because the connection closed
	StatusDiscarded = "discarded"

	// StatusOpened connection opened
	StatusOpened = "opened"
	// StatusClosed connection closed
	StatusClosed = "closed"
)

const (
	// ActionStart start a branch
	ActionStart = "start"
	// ActionEnd end a branch
	ActionEnd = "end"
	// ActionPrepare prepare a branch
	ActionPrepare = "prepare"
	// ActionCommit commit a branch
	ActionCommit = "commit"
	// ActionRollback rollback a branch
	ActionRollback = "rollback"
	// ActionTimeout branch rolled back by timeout
	ActionTimeout = "timeout"
)
