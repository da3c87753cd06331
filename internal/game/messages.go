package game

import (
	"encoding/json"
	"fmt"
)

// Wire message type names, shared with the host and player frontends.
const (
	TypeGameStart          = "gameStart"
	TypeEndQuestion        = "endQuestion"
	TypeEndGame            = "endGame"
	TypeDisplayLeaderboard = "displayLeaderboard"
	TypeChangeLane         = "changeLane"
	TypeAnswerQuestion     = "answerQuestion"
	TypeUserJoined         = "userJoined"
	TypeUserLeft           = "userLeft"
	TypeLeaderboard        = "leaderboard"
	TypeInGameStatus       = "inGameStatus"
	TypeCarColour          = "carColour"
	TypeLaneFinalization   = "laneFinalization"
	TypeQuestionTimeEnd    = "questionTimeEnd"
	TypeEndgameRatings     = "endgameRatings"
	TypeBadMessage         = "badMessage"
)

// Envelope is the wire frame for every message in both directions.
type Envelope struct {
	MessageType string          `json:"messageType"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// HostMessage is a decoded message from the host display.
type HostMessage interface{ hostMessage() }

type GameStart struct{}
type EndQuestion struct{}
type EndGame struct{}
type DisplayLeaderboard struct{}

func (GameStart) hostMessage()          {}
func (EndQuestion) hostMessage()        {}
func (EndGame) hostMessage()            {}
func (DisplayLeaderboard) hostMessage() {}

// PlayerMessage is a decoded message from a player client.
type PlayerMessage interface{ playerMessage() }

type ChangeLane struct {
	Lane int `json:"lane"`
}

type AnswerQuestion struct {
	AnswerIndex int `json:"answerIndex"`
}

func (ChangeLane) playerMessage()     {}
func (AnswerQuestion) playerMessage() {}

// ParseHostMessage decodes an envelope sent by the host.
func ParseHostMessage(env Envelope) (HostMessage, error) {
	switch env.MessageType {
	case TypeGameStart:
		return GameStart{}, nil
	case TypeEndQuestion:
		return EndQuestion{}, nil
	case TypeEndGame:
		return EndGame{}, nil
	case TypeDisplayLeaderboard:
		return DisplayLeaderboard{}, nil
	default:
		return nil, fmt.Errorf("unknown host message type %q", env.MessageType)
	}
}

// ParsePlayerMessage decodes an envelope sent by a player.
func ParsePlayerMessage(env Envelope) (PlayerMessage, error) {
	switch env.MessageType {
	case TypeChangeLane:
		var msg ChangeLane
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return nil, fmt.Errorf("decoding changeLane payload: %w", err)
		}
		return msg, nil
	case TypeAnswerQuestion:
		var msg AnswerQuestion
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return nil, fmt.Errorf("decoding answerQuestion payload: %w", err)
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("unknown player message type %q", env.MessageType)
	}
}

// Payloads sent to the host.

type UserJoined struct {
	Username  string `json:"username"`
	UserCount int    `json:"userCount"`
}

type UserLeft struct {
	Username string `json:"username"`
}

type LaneChanged struct {
	Username string `json:"username"`
	Lane     int    `json:"lane"`
}

type LeaderboardUpdate struct {
	Leaderboard  []RankingEntry `json:"leaderboard"`
	GroupCentre  int            `json:"groupCentre"`
	MaxQuestions int            `json:"maxQuestions"`
}

// Payloads sent to players.

type InGameStatus struct {
	Lane             int          `json:"lane"`
	CorrectCount     int          `json:"correctCount"`
	IncorrectCount   int          `json:"incorrectCount"`
	SkipCount        int          `json:"skipCount"`
	UpcomingLaneInfo []LaneObject `json:"upcomingLaneInfo"`
}

type CarColour struct {
	Colour string `json:"colour"`
}

// QuestionView is the question as shown to a player: text and options,
// never the correct index.
type QuestionView struct {
	Question      string   `json:"question"`
	AnswerOptions []string `json:"answerOptions"`
}

type LaneFinalization struct {
	Hit      LaneObject    `json:"hit"`
	Question *QuestionView `json:"question,omitempty"`
}

type QuestionTimeEnd struct {
	Result      Result `json:"result"`
	AnswerIndex *int   `json:"answerIndex,omitempty"`
	Score       int    `json:"score"`
}

type EndgameRating struct {
	Name                string `json:"name"`
	Score               int    `json:"score"`
	LeaderboardPosition int    `json:"leaderboardPosition"`
}

// BadMessage is returned to the sender on any protocol violation.
type BadMessage struct {
	Reason string `json:"reason"`
}

// Result classifies a player's outcome for one question round.
type Result string

const (
	ResultCorrect   Result = "correct"
	ResultIncorrect Result = "incorrect"
	ResultTimedOut  Result = "timeOut"
	ResultNone      Result = "noResult"
)
