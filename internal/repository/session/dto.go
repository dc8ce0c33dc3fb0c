// Package session persists the signed-in session between runs.
package session

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	domsession "github.com/swapcycle/swapcycle/internal/domain/session"
	"github.com/swapcycle/swapcycle/internal/domain/user"
)

// record is the YAML shape written to disk or Valkey.
type record struct {
	Token   string     `yaml:"token"`
	User    *user.User `yaml:"user,omitempty"`
	SavedAt time.Time  `yaml:"saved_at"`
}

func encode(s domsession.Session, now time.Time) ([]byte, error) {
	data, err := yaml.Marshal(record{Token: s.Token, User: s.User, SavedAt: now.UTC()})
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return data, nil
}

// decode returns ok=false for a record without a token.
func decode(data []byte) (domsession.Session, bool, error) {
	var r record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return domsession.Session{}, false, fmt.Errorf("unmarshal session: %w", err)
	}
	if r.Token == "" {
		return domsession.Anonymous(), false, nil
	}
	return domsession.Session{State: domsession.StateAuthenticated, User: r.User, Token: r.Token}, true, nil
}
