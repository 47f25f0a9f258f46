package knowledge

// BeamHeightEstimate is the rule-of-thumb girder height for a beam family:
// simple spans sit between L/16 and L/12, continuous spans between L/25 and L/18.
func BeamHeightEstimate(span float64, beamType string) float64 {
	switch beamType {
	case "simple":
		return (span/16 + span/12) / 2
	case "continuous":
		return (span/25 + span/18) / 2
	}
	return span / 15
}
