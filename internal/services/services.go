// Package services holds the operations behind the HTTP surface. Each takes
// the resolved caller explicitly and enforces its own authorization, so the
// same rules hold whether a call arrives over HTTP or from the CLI.
package services

import (
	"fmt"
	"strings"

	"github.com/HIMANADH789/careworkers/internal/identity"
	"github.com/HIMANADH789/careworkers/internal/models"
)

const maxNoteLength = 500

func requireActor(actor identity.Identity) error {
	if !actor.Authenticated() {
		return models.ErrUnauthenticated
	}
	return nil
}

func requireManager(actor identity.Identity) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.IsManager() {
		return fmt.Errorf("%w: manager role required", models.ErrForbidden)
	}
	return nil
}

// normalizeNote trims a free-text note; blank becomes nil.
func normalizeNote(note *string) (*string, error) {
	if note == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*note)
	if s == "" {
		return nil, nil
	}
	if len(s) > maxNoteLength {
		return nil, fmt.Errorf("%w: note longer than %d characters", models.ErrInvalidInput, maxNoteLength)
	}
	return &s, nil
}
