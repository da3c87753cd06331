package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr    string     `env:"HTTP_ADDR" envDefault:":3001"`
	DBPath      string     `env:"DB_PATH" envDefault:"data/questions.db"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	FrontendURL string     `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	// Game pacing. Shortened in tests, left at defaults in production.
	PreRollDelay    time.Duration `env:"PRE_ROLL_DELAY" envDefault:"10s"`
	LaneChoiceDwell time.Duration `env:"LANE_CHOICE_DWELL" envDefault:"10s"`
	QuestionDwell   time.Duration `env:"QUESTION_DWELL" envDefault:"10s"`
	FeedbackDelay   time.Duration `env:"FEEDBACK_DELAY" envDefault:"10s"`
	RevealDelay     time.Duration `env:"REVEAL_DELAY" envDefault:"2s"`
	TeardownGrace   time.Duration `env:"TEARDOWN_GRACE" envDefault:"10s"`

	MaxRounds int `env:"MAX_ROUNDS" envDefault:"10"`
	LaneCount int `env:"LANE_COUNT" envDefault:"3"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
