package aggregator

// ChannelRate is the contribution of one channel to the fused heart rate
type ChannelRate struct {
	BPM          float64
	Disconnected bool
}

// Contribution is the usable rate of the channel; a disconnected lead
// contributes nothing whatever its last window said.
func (c ChannelRate) Contribution() float64 {
	if c.Disconnected || c.BPM < 0 {
		return 0
	}
	return c.BPM
}

// FuseHeartRate prefers the ECG rate when its leads are attached and it has a
// rate, otherwise it falls back to the pulse sensor.
func FuseHeartRate(ecg, pulse ChannelRate) float64 {
	if v := ecg.Contribution(); v > 0 {
		return v
	}
	return pulse.Contribution()
}
