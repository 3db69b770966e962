// internal/engine/voting.go
package engine

import (
	"github.com/google/uuid"

	"github.com/imposterhq/imposter/internal/models"
)

// TallyResult is the outcome of counting a round's votes.
type TallyResult struct {
	Counts   map[uuid.UUID]int
	MaxVotes int
	Winners  []uuid.UUID
	// VotedOut is the sole plurality winner, or uuid.Nil on a tie. The
	// imposter is caught iff VotedOut == the round's imposter: plurality-
	// winner identity, never a majority-threshold count.
	VotedOut uuid.UUID
}

// TallyVotes counts every committed vote and resolves the plurality winner.
// Votes committed by players who have since gone offline still count; their
// rows are preserved.
func TallyVotes(votes []*models.Vote) TallyResult {
	res := TallyResult{Counts: make(map[uuid.UUID]int)}
	for _, v := range votes {
		res.Counts[v.SuspectID]++
	}
	for suspect, n := range res.Counts {
		if n > res.MaxVotes {
			res.MaxVotes = n
			res.Winners = []uuid.UUID{suspect}
		} else if n == res.MaxVotes {
			res.Winners = append(res.Winners, suspect)
		}
	}
	if len(res.Winners) == 1 {
		res.VotedOut = res.Winners[0]
	}
	return res
}

// voteQuorumMet reports whether every currently-online player has a committed
// vote. The imposter votes too. Recomputed dynamically: a roster change mid-
// vote shrinks the quorum, so an already-committed set of votes can satisfy
// it.
func voteQuorumMet(votes []*models.Vote, players []*models.Player) bool {
	online := make(map[uuid.UUID]bool)
	total := 0
	for _, p := range players {
		if p.IsOnline {
			online[p.ID] = true
			total++
		}
	}
	if total == 0 {
		return false
	}
	committed := 0
	for _, v := range votes {
		if online[v.VoterID] {
			committed++
		}
	}
	return committed >= total
}

// countsPayload renders vote counts for event payloads.
func countsPayload(counts map[uuid.UUID]int) map[string]int {
	out := make(map[string]int, len(counts))
	for id, n := range counts {
		out[id.String()] = n
	}
	return out
}
