package featureflag

type Flag string

const (
	// The focus stays at the start of the orbit.
	FlagDisableTargetMotion Flag = "DISABLE_TARGET_MOTION"

	// Frames are still built and served on /frame but not streamed to
	// viewers.
	FlagDisableFrameBroadcast Flag = "DISABLE_FRAME_BROADCAST"

	// Logs the added and removed node counts of every cycle.
	FlagEnableFrameDiffLogs Flag = "ENABLE_FRAME_DIFF_LOGS"
)
