package activeverify

import "time"

// Campaign aggregates the outcome of every Active Verification round run
// against one identity over the course of a trip. Grounded on the
// teacher's presence.Verifier/Evidence pair, which tracked a session's
// pass/fail/missed challenge counts and an overall verification rate;
// adapted here from the teacher's typed phrase/math/word challenges to
// rounds of the nonce-bound Session above.
type Campaign struct {
	IdentityKey string
	Rounds      []Round
}

// Round is the outcome of a single resolved session, kept independently
// of the live Session so a Campaign can be compiled after sessions are
// deleted from the Store.
type Round struct {
	SessionID   string
	IssuedAt    time.Time
	ResolvedState State
	FailReason  string
}

// NewCampaign starts an empty campaign for an identity.
func NewCampaign(identityKey string) *Campaign {
	return &Campaign{IdentityKey: identityKey}
}

// Record appends a resolved session's outcome to the campaign. Sessions
// still AwaitingResponse or Evaluating are not yet resolved and are
// rejected.
func (c *Campaign) Record(sess *Session) bool {
	if sess.State != StateComplete && sess.State != StateFailed {
		return false
	}
	c.Rounds = append(c.Rounds, Round{
		SessionID:     sess.ID,
		IssuedAt:      sess.Challenge.ChallengeTS,
		ResolvedState: sess.State,
		FailReason:    sess.FailReason,
	})
	return true
}

// Evidence summarizes a campaign's rounds for inclusion in a human-facing
// report or an audit record, mirroring the teacher's
// presence.CompileEvidence rollup.
type Evidence struct {
	IdentityKey      string  `json:"identity_key"`
	TotalRounds      int     `json:"total_rounds"`
	Passed           int     `json:"passed"`
	Failed           int     `json:"failed"`
	VerificationRate float64 `json:"verification_rate"`
}

// CompileEvidence rolls a campaign's rounds into summary Evidence.
func CompileEvidence(c *Campaign) Evidence {
	ev := Evidence{IdentityKey: c.IdentityKey, TotalRounds: len(c.Rounds)}
	for _, r := range c.Rounds {
		switch r.ResolvedState {
		case StateComplete:
			ev.Passed++
		case StateFailed:
			ev.Failed++
		}
	}
	if ev.TotalRounds > 0 {
		ev.VerificationRate = float64(ev.Passed) / float64(ev.TotalRounds)
	}
	return ev
}
