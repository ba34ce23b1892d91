package service

import (
	"github.com/google/uuid"
)

// resolveActor turns the caller identity supplied by the transport layer into
// an actor id. Audited writes refuse to run without one.
func resolveActor(actorID string) (uuid.UUID, error) {
	if actorID == "" {
		return uuid.Nil, ErrMissingActor
	}
	id, err := uuid.Parse(actorID)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrMissingActor
	}
	return id, nil
}
