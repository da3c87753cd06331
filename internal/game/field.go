package game

import "math/rand/v2"

// LaneObject is the content of one lane cell on the track.
type LaneObject string

const (
	LaneEmpty    LaneObject = "nothing"
	LaneQuestion LaneObject = "question"
	LaneObstacle LaneObject = "obstacle"
)

// field is the precomputed track: field[trackIndex][lane]. It is generated
// once at session creation and immutable afterwards. Rows cover indexes
// 0..2*maxRounds so that roundCounter+positionDelta always lands in bounds.
type field [][]LaneObject

func generateField(maxRounds, laneCount int, rng *rand.Rand) field {
	rows := make(field, 2*maxRounds+1)
	for i := range rows {
		row := make([]LaneObject, laneCount)
		allObstacles := true
		for lane := range row {
			row[lane] = drawLaneObject(rng)
			if row[lane] != LaneObstacle {
				allObstacles = false
			}
		}
		// Every row needs at least one survivable lane.
		if allObstacles {
			row[rng.IntN(laneCount)] = LaneEmpty
		}
		rows[i] = row
	}
	return rows
}

// drawLaneObject picks a cell content: 40% question, 20% obstacle, 40% empty.
func drawLaneObject(rng *rand.Rand) LaneObject {
	r := rng.Float64()
	switch {
	case r < 0.4:
		return LaneQuestion
	case r < 0.6:
		return LaneObstacle
	default:
		return LaneEmpty
	}
}
