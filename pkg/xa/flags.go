package xa

// Flags of the xa operations
const (
	// TMNoFlags no flags
	TMNoFlags = 0
	// TMJoin join a existing branch
	TMJoin = 0x00200000
	// TMEndRScan end the recovery scan
	TMEndRScan = 0x00800000
	// TMStartRScan start the recovery scan
	TMStartRScan = 0x01000000
	// TMSuspend suspend the association
	TMSuspend = 0x02000000
	// TMSuccess the work is completed
	TMSuccess = 0x04000000
	// TMResume resume a suspended association
	TMResume = 0x08000000
	// TMFail the work failed, the branch can only be rolled back
	TMFail = 0x20000000
	// TMOnePhase commit with the one phase optimization
	TMOnePhase = 0x40000000
)
