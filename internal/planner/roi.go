package planner

// ROIMetric represents the components of an ROI calculation
type ROIMetric struct {
	GainPerSecond float64 // income added by the purchase
	TotalCost     float64
	WaitSeconds   float64 // time until the purchase is affordable
}

// Calculate computes the final ROI value: the inverse of the time until the
// purchase has paid for itself, counting the wait to afford it.
func (m ROIMetric) Calculate() float64 {
	if m.GainPerSecond <= 0 {
		return 0
	}
	if m.TotalCost <= 0 {
		return m.GainPerSecond * 1000 // Very high ROI if free
	}
	payback := m.WaitSeconds + m.TotalCost/m.GainPerSecond
	return 1 / payback
}
