package meters

import "math"

// MinDB is the floor for dBFS conversion; levels at or below silence report it.
const MinDB = -60.0

// LevelToDB converts a normalized [0, 1] level to dBFS, clamped to MinDB.
// Used by display layers only; the pipeline itself stays in linear units.
func LevelToDB(level float64) float64 {
	if level <= 0 {
		return MinDB
	}
	db := 20 * math.Log10(level)
	if db < MinDB {
		return MinDB
	}
	return db
}
