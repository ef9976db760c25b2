package brief

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/sells-group/roi-cli/internal/model"
)

var (
	// ErrInvalidRecipient is returned when a recipient has no "@".
	ErrInvalidRecipient = errors.New("please enter a valid requester e-mail")

	// ErrAccessDenied is returned when the access-gate secret does not match.
	ErrAccessDenied = errors.New("incorrect password, try again")
)

// ValidateRecipient trims s and accepts it when it contains "@".
func ValidateRecipient(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || !strings.Contains(s, "@") {
		return "", ErrInvalidRecipient
	}
	return s, nil
}

// Gate reveals the admin inputs to whoever knows the shared secret. It is
// a UI affordance, not an authentication mechanism.
type Gate struct {
	secret string
}

// NewGate creates a Gate. An empty secret never unlocks.
func NewGate(secret string) *Gate {
	return &Gate{secret: secret}
}

// Unlock returns ErrAccessDenied unless candidate equals the secret.
func (g *Gate) Unlock(candidate string) error {
	if g.secret == "" || subtle.ConstantTimeCompare([]byte(candidate), []byte(g.secret)) != 1 {
		return ErrAccessDenied
	}
	return nil
}

// Status is the readiness of a brief for evaluation.
type Status string

const (
	StatusReady   Status = "ready"
	StatusPending Status = "pending"
)

// Label returns the display text of the status.
func (s Status) Label() string {
	if s == StatusReady {
		return "✅ Ready for evaluation"
	}
	return "⏳ Needs completion"
}

// StatusOf reports StatusReady when every criterion has a score.
func StatusOf(form model.Form) Status {
	for _, c := range model.Criteria {
		if form[model.ScoreField(c)] == "" {
			return StatusPending
		}
	}
	return StatusReady
}
