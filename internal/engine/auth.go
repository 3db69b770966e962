// internal/engine/auth.go
package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// LobbyAuthorizer answers membership questions for the outer surface (topic
// subscriptions, request pre-checks). The engine re-validates membership
// inside its own transactions regardless.
type LobbyAuthorizer interface {
	BelongsToLobby(ctx context.Context, lobbyID, playerID uuid.UUID) (bool, error)
}

// StoreAuthorizer is the default LobbyAuthorizer backed by the engine store.
type StoreAuthorizer struct {
	Store Store
}

func (a StoreAuthorizer) BelongsToLobby(ctx context.Context, lobbyID, playerID uuid.UUID) (bool, error) {
	var ok bool
	err := a.Store.RunInTx(ctx, func(tx Tx) error {
		p, err := tx.GetPlayer(playerID)
		if err != nil {
			if errors.Is(err, ErrPlayerNotFound) {
				return nil
			}
			return err
		}
		// Removed players stay on the roster offline; they are no longer
		// members for authorization purposes.
		ok = p.LobbyID == lobbyID && p.IsOnline
		return nil
	})
	return ok, err
}
