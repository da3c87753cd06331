// Package game implements the per-session state machine for quiz-rally: the
// phase sequence, player state, the lane field, scoring, ranking, and the
// message exchange with the host and player connections.
package game

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/quizrally/laneracer/internal/question"
)

// Phase is the current stage of a session.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseUpdate
	PhaseLaneChoice
	PhaseQuestioning
	PhaseFeedback
	PhaseEndgame
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseUpdate:
		return "update"
	case PhaseLaneChoice:
		return "laneChoice"
	case PhaseQuestioning:
		return "questioning"
	case PhaseFeedback:
		return "feedback"
	case PhaseEndgame:
		return "endgame"
	default:
		return "unknown"
	}
}

// QuestionSource supplies unseen questions for players.
type QuestionSource interface {
	PoolSize() int
	Pick(ctx context.Context, seen map[int]struct{}) (question.Question, int, error)
}

// Config holds the fixed per-session parameters. Zero durations and counts
// fall back to the production defaults.
type Config struct {
	MaxRounds int
	LaneCount int

	PreRollDelay    time.Duration
	LaneChoiceDwell time.Duration
	QuestionDwell   time.Duration
	FeedbackDelay   time.Duration
	RevealDelay     time.Duration
	TeardownGrace   time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRounds == 0 {
		c.MaxRounds = 10
	}
	if c.LaneCount == 0 {
		c.LaneCount = 3
	}
	if c.PreRollDelay == 0 {
		c.PreRollDelay = 10 * time.Second
	}
	if c.LaneChoiceDwell == 0 {
		c.LaneChoiceDwell = 10 * time.Second
	}
	if c.QuestionDwell == 0 {
		c.QuestionDwell = 10 * time.Second
	}
	if c.FeedbackDelay == 0 {
		c.FeedbackDelay = 10 * time.Second
	}
	if c.RevealDelay == 0 {
		c.RevealDelay = 2 * time.Second
	}
	if c.TeardownGrace == 0 {
		c.TeardownGrace = 10 * time.Second
	}
	return c
}

// Session is one running game instance. All state behind mu; every inbound
// message handler and every timer callback takes the lock, so phase
// transitions never race.
type Session struct {
	code      string
	cfg       Config
	logger    *slog.Logger
	questions QuestionSource
	ctx       context.Context

	mu           sync.Mutex
	phase        Phase
	started      bool
	roundCounter int
	track        field
	players      map[string]*playerState
	order        []string // join order, drives ranking tie-breaks
	host         Conn
	onTeardown   func()
}

// NewSession creates a session in the lobby phase with a freshly generated
// field. onTeardown is invoked once, after the post-leaderboard grace delay,
// so the owning registry can drop the session.
func NewSession(ctx context.Context, code string, cfg Config, logger *slog.Logger, questions QuestionSource, rng *rand.Rand, onTeardown func()) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		code:       code,
		cfg:        cfg,
		logger:     logger.With("room", code),
		questions:  questions,
		ctx:        ctx,
		phase:      PhaseLobby,
		track:      generateField(cfg.MaxRounds, cfg.LaneCount, rng),
		players:    make(map[string]*playerState),
		onTeardown: onTeardown,
	}
	s.logger.Info("session created")
	return s
}

func (s *Session) Code() string { return s.code }

// Phase reports the current phase. Exposed for the transport layer and tests.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// SetHost attaches (or replaces) the host connection.
func (s *Session) SetHost(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Info("host connected")
	s.host = conn
}

// Join adds a player or, if the name is already taken, replaces that
// player's connection. Counters and asked-question history survive the
// reconnect.
func (s *Session) Join(name string, conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.players[name]; ok {
		s.logger.Info("player reconnected", "player", name)
		p.conn.Close("replaced by reconnect")
		p.conn = conn
		return
	}

	s.logger.Info("player joined", "player", name)
	p := &playerState{
		conn: conn,
		lane: s.cfg.LaneCount / 2,
		// A late joiner starts at the group centre: seeding incorrectCount
		// with the rounds already played keeps their field index level with
		// the pack and inside the track bounds.
		incorrectCount:  s.roundCounter,
		previouslyAsked: make(map[int]struct{}),
		colour:          pickColour(s.players),
	}
	s.players[name] = p
	s.order = append(s.order, name)

	s.sendHost(TypeUserJoined, UserJoined{Username: name, UserCount: len(s.players)})

	if s.started {
		s.sendPlayer(name, p, TypeGameStart, nil)
	}
}

// PlayerDisconnected records a dropped player connection. The player record
// is kept for reconnects; only the host is told.
func (s *Session) PlayerDisconnected(name string, conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[name]
	if !ok || p.conn != conn {
		// Already replaced by a reconnect.
		return
	}
	s.logger.Info("player disconnected", "player", name)
	s.sendHost(TypeUserLeft, UserLeft{Username: name})
}

// HostDisconnected clears the host connection if it is still the one that
// dropped. The session keeps running; host sends become no-ops.
func (s *Session) HostDisconnected(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.host == conn {
		s.logger.Info("host disconnected")
		s.host = nil
	}
}

// HandleHost applies one message from the host connection.
func (s *Session) HandleHost(env Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := ParseHostMessage(env)
	if err != nil {
		s.logger.Error("bad host message", "error", err)
		s.sendHost(TypeBadMessage, BadMessage{Reason: err.Error()})
		return
	}

	switch msg.(type) {
	case GameStart:
		if s.started {
			s.sendHost(TypeBadMessage, BadMessage{Reason: "game already started"})
			return
		}
		s.startGame()
	case EndQuestion:
		if s.phase != PhaseQuestioning {
			s.sendHost(TypeBadMessage, BadMessage{Reason: "no question phase in progress"})
			return
		}
		s.logger.Info("host ended question phase early")
		s.endQuestioning()
	case EndGame:
		s.logger.Info("host force-ended the game")
		s.phase = PhaseEndgame
		s.enterEndgame()
	case DisplayLeaderboard:
		if s.phase != PhaseEndgame {
			s.sendHost(TypeBadMessage, BadMessage{Reason: "game has not ended"})
			return
		}
		s.schedule(s.cfg.RevealDelay, PhaseEndgame, s.revealLeaderboard)
	}
}

// HandlePlayer applies one message from a player connection. sender is used
// to answer peers that cannot be resolved to a known player.
func (s *Session) HandlePlayer(name string, env Envelope, sender Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[name]
	if !ok {
		s.sendTo(sender, TypeBadMessage, BadMessage{Reason: "player " + name + " does not exist"})
		return
	}

	msg, err := ParsePlayerMessage(env)
	if err != nil {
		s.logger.Error("bad player message", "player", name, "error", err)
		s.sendPlayer(name, p, TypeBadMessage, BadMessage{Reason: err.Error()})
		return
	}

	switch m := msg.(type) {
	case ChangeLane:
		if s.phase != PhaseLaneChoice {
			s.sendPlayer(name, p, TypeBadMessage, BadMessage{Reason: "lane changes are only allowed during lane choice"})
			return
		}
		if m.Lane < 0 || m.Lane >= s.cfg.LaneCount {
			s.sendPlayer(name, p, TypeBadMessage, BadMessage{Reason: "lane out of range"})
			return
		}
		s.logger.Debug("lane change", "player", name, "lane", m.Lane)
		p.lane = m.Lane
		s.sendHost(TypeChangeLane, LaneChanged{Username: name, Lane: m.Lane})
	case AnswerQuestion:
		if s.phase != PhaseQuestioning {
			s.sendPlayer(name, p, TypeBadMessage, BadMessage{Reason: "no question in progress"})
			return
		}
		// Latest submission wins.
		answer := m.AnswerIndex
		p.selectedAnswer = &answer
	}
}

// startGame broadcasts the start notice and schedules the first update after
// the pre-roll delay. The session stays in the lobby until then; joins keep
// working and get a started notice. Callers hold mu.
func (s *Session) startGame() {
	s.logger.Info("game starting", "players", len(s.players))
	s.started = true
	s.sendHost(TypeGameStart, nil)
	for name, p := range s.players {
		s.sendPlayer(name, p, TypeGameStart, nil)
	}
	s.schedule(s.cfg.PreRollDelay, PhaseLobby, s.enterUpdate)
}

// enterUpdate begins a round: bumps the round counter, refreshes the host
// leaderboard, shows every player their upcoming row, then opens lane
// choice. Callers hold mu.
func (s *Session) enterUpdate() {
	s.phase = PhaseUpdate
	s.roundCounter++
	s.logger.Info("entering update phase", "round", s.roundCounter)

	s.sendLeaderboard()

	for _, name := range s.order {
		p := s.players[name]
		upcoming := s.track[s.roundCounter+p.positionDelta()]
		s.sendPlayer(name, p, TypeInGameStatus, InGameStatus{
			Lane:             p.lane,
			CorrectCount:     p.correctCount,
			IncorrectCount:   p.incorrectCount,
			SkipCount:        p.skipCount,
			UpcomingLaneInfo: upcoming,
		})
		s.sendPlayer(name, p, TypeCarColour, CarColour{Colour: p.colour})
	}

	s.phase = PhaseLaneChoice
	s.schedule(s.cfg.LaneChoiceDwell, PhaseLaneChoice, s.endLaneChoice)
}

// endLaneChoice resolves every player's chosen lane against the field row,
// applies obstacle penalties, deals questions, and opens the questioning
// phase. Callers hold mu.
func (s *Session) endLaneChoice() {
	s.logger.Info("lane choice over", "round", s.roundCounter)

	for _, name := range s.order {
		p := s.players[name]
		hit := s.track[s.roundCounter+p.positionDelta()][p.lane]

		if hit == LaneObstacle {
			// One-round penalty.
			p.incorrectCount++
		}

		p.currentQuestion = nil
		p.selectedAnswer = nil

		var view *QuestionView
		if hit == LaneQuestion {
			q, id, err := s.questions.Pick(s.ctx, p.previouslyAsked)
			switch {
			case errors.Is(err, question.ErrExhausted):
				// Out of unseen questions: the cell plays as empty.
				s.logger.Warn("question pool exhausted", "player", name)
				hit = LaneEmpty
			case err != nil:
				s.logger.Error("picking question", "player", name, "error", err)
				hit = LaneEmpty
			default:
				p.previouslyAsked[id] = struct{}{}
				p.currentQuestion = &q
				view = &QuestionView{Question: q.Text, AnswerOptions: q.Options}
			}
		}

		s.sendPlayer(name, p, TypeLaneFinalization, LaneFinalization{Hit: hit, Question: view})
	}

	s.phase = PhaseQuestioning
	s.schedule(s.cfg.QuestionDwell, PhaseQuestioning, s.endQuestioning)
}

// endQuestioning scores the round, sends each player their result, updates
// the host leaderboard, and schedules either the next round or the endgame.
// Reached by the dwell timer or an explicit host endQuestion. Callers hold mu.
func (s *Session) endQuestioning() {
	s.phase = PhaseFeedback
	s.logger.Info("scoring round", "round", s.roundCounter)

	for _, name := range s.order {
		p := s.players[name]

		var result Result
		var answerIndex *int
		switch {
		case p.currentQuestion == nil:
			p.skipCount++
			result = ResultNone
		case p.selectedAnswer == nil:
			p.incorrectCount++
			result = ResultTimedOut
		case *p.selectedAnswer == p.currentQuestion.Correct:
			p.correctCount++
			result = ResultCorrect
		default:
			p.incorrectCount++
			result = ResultIncorrect
		}
		if p.currentQuestion != nil {
			correct := p.currentQuestion.Correct
			answerIndex = &correct
		}

		s.sendPlayer(name, p, TypeQuestionTimeEnd, QuestionTimeEnd{
			Result:      result,
			AnswerIndex: answerIndex,
			Score:       p.correctCount,
		})

		p.currentQuestion = nil
		p.selectedAnswer = nil
	}

	s.sendLeaderboard()

	if s.roundCounter == s.cfg.MaxRounds {
		s.logger.Info("all rounds played")
		s.phase = PhaseEndgame
		s.schedule(s.cfg.FeedbackDelay, PhaseEndgame, s.enterEndgame)
		return
	}
	s.schedule(s.cfg.FeedbackDelay, PhaseFeedback, s.enterUpdate)
}

// enterEndgame notifies everyone that the game is over. The session then
// waits for the host to request the final standings. Callers hold mu.
func (s *Session) enterEndgame() {
	s.logger.Info("entering endgame")
	s.sendHost(TypeEndGame, struct{}{})
	for name, p := range s.players {
		s.sendPlayer(name, p, TypeEndGame, struct{}{})
	}
}

// revealLeaderboard sends the final standings to the host and each player's
// own rank, then schedules disconnect and teardown. Callers hold mu.
func (s *Session) revealLeaderboard() {
	s.logger.Info("revealing final standings")
	ranking := makeRanking(s.order, s.players)

	s.sendHost(TypeLeaderboard, LeaderboardUpdate{
		Leaderboard:  ranking,
		GroupCentre:  s.roundCounter,
		MaxQuestions: s.cfg.MaxRounds,
	})

	for pos, entry := range ranking {
		p := s.players[entry.Username]
		s.sendPlayer(entry.Username, p, TypeEndgameRatings, EndgameRating{
			Name:                entry.Username,
			Score:               entry.CorrectCount,
			LeaderboardPosition: pos + 1,
		})
	}

	s.schedule(s.cfg.TeardownGrace, PhaseEndgame, s.teardown)
}

// teardown closes every connection and hands the session back to the
// registry. Callers hold mu.
func (s *Session) teardown() {
	s.logger.Info("tearing down session")
	for _, p := range s.players {
		p.conn.Close("game over")
	}
	if s.host != nil {
		s.host.Close("game over")
	}
	if s.onTeardown != nil {
		s.onTeardown()
	}
}

// schedule runs fn after d if the session is still in the from phase when
// the timer fires. Timers are never cancelled; a callback racing an explicit
// host transition is expected and must no-op, so every callback is guarded
// by this phase check.
func (s *Session) schedule(d time.Duration, from Phase, fn func()) {
	time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.phase != from {
			s.logger.Debug("stale timer ignored", "expected", from, "phase", s.phase)
			return
		}
		fn()
	})
}

// sendLeaderboard pushes the current ranking to the host. Callers hold mu.
func (s *Session) sendLeaderboard() {
	s.sendHost(TypeLeaderboard, LeaderboardUpdate{
		Leaderboard:  makeRanking(s.order, s.players),
		GroupCentre:  s.roundCounter,
		MaxQuestions: s.cfg.MaxRounds,
	})
}

func (s *Session) sendHost(messageType string, data any) {
	if s.host == nil {
		return
	}
	if err := s.host.Send(messageType, data); err != nil {
		s.logger.Warn("host send failed", "type", messageType, "error", err)
	}
}

func (s *Session) sendPlayer(name string, p *playerState, messageType string, data any) {
	if err := p.conn.Send(messageType, data); err != nil {
		s.logger.Warn("player send failed", "player", name, "type", messageType, "error", err)
	}
}

func (s *Session) sendTo(conn Conn, messageType string, data any) {
	if err := conn.Send(messageType, data); err != nil {
		s.logger.Warn("send failed", "type", messageType, "error", err)
	}
}
