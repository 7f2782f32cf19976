package feature

// Config carries the rolling-window parameters the feature engine uses.
// These come from the model bundle's metadata, never from process config,
// so a deployed model always sees the exact windows it was trained with.
type Config struct {
	MomentumPeriod    int
	ConsistencyPeriod int
	RangePeriod       int
	ROCPeriod         int
	ATRPeriod         int
	EMAPeriod         int
	VolumeMAPeriod    int
	NumHMMStates      int
}
