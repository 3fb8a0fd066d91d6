package common

const SpeedOfWalkingMin = 0.23 // or 0.8 km/h or 0.5 mph
const SpeedOfWalkingSlow = 0.5 // or 1.8 km/h or 1.1 mph
const SpeedOfWalkingMean = 1.2 // or 4.3 km/h or 2.7 mph
const SpeedOfWalkingMax = 1.78 // or 6.4 km/h or 4 mph

const SpeedOfRunningMin = 2.23 // or 8 km/h or 5 mph
const SpeedOfRunningMax = 5.56 // or 20 km/h or 12 mph
var SpeedOfRunningMean = 3.35  // or 12 km/h or 7.5 mph or 8min/mile

const SpeedOfSound = 343.0
