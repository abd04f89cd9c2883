package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL,default=INFO"`
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=8080"`
	GRPCPort int    `env:"GRPC_PORT,default=9090"`
	// DebugPort only serves the Badger inspector when LOG_LEVEL is DEBUG.
	DebugPort int `env:"DEBUG_PORT,default=8081"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`

	BufferSize           int           `env:"BUFFER_SIZE,default=1024"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=10s"`

	BotReplyDelay time.Duration `env:"BOT_REPLY_DELAY,default=500ms"`
	BotSessionTTL time.Duration `env:"BOT_SESSION_TTL,default=10m"`

	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	AuthRequireToken  bool          `env:"AUTH_REQUIRE_TOKEN,default=false"`
	VerificationCode  string        `env:"VERIFICATION_CODE,default=22222"`
	InviteBaseURL     string        `env:"INVITE_BASE_URL,default=https://t.me/+"`
	AllowedOrigins    string        `env:"ALLOWED_ORIGINS"`

	ModerationEnabled bool   `env:"MODERATION_ENABLED,default=false"`
	CensoredWords     string `env:"CENSORED_WORDS"`
	CensoredDir       string `env:"CENSORED_DIR"`
	CharReplacement   string `env:"CHARACTER_REPLACEMENT,default=*"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

// SplitList parses a comma separated variable, blank items are dropped.
func SplitList(raw string) []string {
	items := lo.Map(strings.Split(raw, ","), func(s string, _ int) string { return strings.TrimSpace(s) })
	return lo.Compact(items)
}
