// internal/models/round_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundStatusTransitions(t *testing.T) {
	assert.True(t, StatusInProgress.CanTransitionTo(StatusVoting))
	assert.True(t, StatusInProgress.CanTransitionTo(StatusBetting))
	assert.True(t, StatusInProgress.CanTransitionTo(StatusEmergencyVoting))
	assert.True(t, StatusHintsComplete.CanTransitionTo(StatusVoting))
	assert.True(t, StatusBetting.CanTransitionTo(StatusVoting))
	assert.True(t, StatusVoting.CanTransitionTo(StatusGuessing))
	assert.True(t, StatusVoting.CanTransitionTo(StatusComplete))
	assert.True(t, StatusEmergencyVoting.CanTransitionTo(StatusComplete))
	assert.True(t, StatusGuessing.CanTransitionTo(StatusComplete))

	t.Run("no backward or skipping moves", func(t *testing.T) {
		assert.False(t, StatusVoting.CanTransitionTo(StatusInProgress))
		assert.False(t, StatusBetting.CanTransitionTo(StatusGuessing))
		assert.False(t, StatusEmergencyVoting.CanTransitionTo(StatusGuessing))
		assert.False(t, StatusGuessing.CanTransitionTo(StatusVoting))
	})

	t.Run("complete is terminal", func(t *testing.T) {
		assert.True(t, StatusComplete.Terminal())
		for _, s := range []RoundStatus{StatusInProgress, StatusHintsComplete, StatusBetting, StatusVoting, StatusEmergencyVoting, StatusGuessing} {
			assert.False(t, s.Terminal(), s)
			assert.False(t, StatusComplete.CanTransitionTo(s))
		}
	})
}
