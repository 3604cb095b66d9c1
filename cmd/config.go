package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
	LogLevel                  string        `env:"LOG_LEVEL,required=true"`
	JWTSecret                 string        `env:"JWT_SECRET,required=true"`
	TokenDuration             time.Duration `env:"TOKEN_DURATION,default=24h"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath             string        `env:"BLUGE_FILEPATH,required=true"`
	BufferSize                int           `env:"BUFFER_SIZE,required=true"`
	ConnectionBufferSize      int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	AuthWindow                time.Duration `env:"AUTH_WINDOW,default=10s"`
	RestartInterval           time.Duration `env:"RESTART_INTERVAL,required=true"`
	CensoredWordsPath         string        `env:"CENSORED_WORDS_FILEPATH"`
	ModerationCharReplacement string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
}

func (c Config) CharacterRune() (rune, error) {
	r := []rune(c.ModerationCharReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			c.ModerationCharReplacement,
		)
	}
	return r[0], nil
}
