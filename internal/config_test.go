package internal

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	environ := env.EnvSet{
		"BADGER_FILEPATH": "/tmp/badger",
		"BLUGE_FILEPATH":  "/tmp/bluge",
		"AUTH_SECRET":     "secret",
		"ALLOWED_ORIGINS": "http://a.test, ,http://b.test",
	}

	var config Config
	err := env.Unmarshal(environ, &config)

	req.NoError(err)
	req.Equal(8080, config.Port)
	req.Equal("22222", config.VerificationCode)
	req.Equal(10*time.Minute, config.BotSessionTTL)
	req.Equal("https://t.me/+", config.InviteBaseURL)
	req.Equal([]string{"http://a.test", "http://b.test"}, SplitList(config.AllowedOrigins))
}

func TestConfig_Missing_Secret(t *testing.T) {
	var config Config
	err := env.Unmarshal(env.EnvSet{"BADGER_FILEPATH": "/tmp/badger", "BLUGE_FILEPATH": "/tmp/bluge"}, &config)
	require.Error(t, err)
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("€")
	req.NoError(err)
	req.Equal('€', r)

	_, err = CharacterRune("**")
	req.Error(err)
}
