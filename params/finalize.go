package params

// RunningSpeedThreshold separates Running from Walking on the derived
// session speed, (distance/durationMs)*1000. The derived speed is a
// different quantity than the per-fix average speed, and the two are
// deliberately not reconciled; see geo/finalize.
const RunningSpeedThreshold = 10.0
