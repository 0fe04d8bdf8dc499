package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// SERVER_URL points at a running relay, e.g. http://localhost:8080.
	// The suite is skipped when it is unset.
	ServerURL string `envconfig:"SERVER_URL"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`

	TeacherIdentifier string `envconfig:"E2E_TEACHER_IDENTIFIER" default:"teacher@demo.local"`
	TeacherPassword   string `envconfig:"E2E_TEACHER_PASSWORD" default:"teacher123"`
	StudentIdentifier string `envconfig:"E2E_STUDENT_IDENTIFIER" default:"student1"`
	StudentPassword   string `envconfig:"E2E_STUDENT_PASSWORD" default:"student123"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
