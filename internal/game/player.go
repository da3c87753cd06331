package game

import "github.com/quizrally/laneracer/internal/question"

// playerState is the per-player record owned by a Session. It is created on
// first join and survives disconnects; a reconnect under the same name only
// swaps the connection.
type playerState struct {
	conn Conn

	lane            int
	correctCount    int
	incorrectCount  int
	skipCount       int
	currentQuestion *question.Question
	selectedAnswer  *int
	previouslyAsked map[int]struct{}
	colour          string
}

func (p *playerState) positionDelta() int {
	return p.correctCount - p.incorrectCount
}

// carColours is the palette assigned to players in join order. Colours stay
// unique while the session has at most len(carColours) players.
var carColours = []string{
	"bg-red-500",
	"bg-blue-500",
	"bg-green-500",
	"bg-yellow-500",
	"bg-purple-500",
	"bg-pink-500",
	"bg-indigo-500",
	"bg-gray-500",
	"bg-orange-500",
	"bg-teal-500",
	"bg-cyan-500",
	"bg-lime-500",
}

// pickColour returns the first palette colour not yet assigned, wrapping
// around once the palette is exhausted.
func pickColour(players map[string]*playerState) string {
	assigned := make(map[string]bool, len(players))
	for _, p := range players {
		assigned[p.colour] = true
	}
	for _, c := range carColours {
		if !assigned[c] {
			return c
		}
	}
	return carColours[len(players)%len(carColours)]
}
