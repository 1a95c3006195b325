package loadgen

import "fmt"

// verifyTeam checks a team answer against its request: same members in the
// same order, scores in range, and a summary consistent with the members.
func verifyTeam(team *Team, resp *TeamResponse) error {
	if resp.RunID == "" {
		return fmt.Errorf("%w: empty run id", ErrMismatch)
	}
	if len(resp.Members) != len(team.Members) {
		return fmt.Errorf("%w: %d members answered, %d sent", ErrMismatch, len(resp.Members), len(team.Members))
	}

	for i, m := range resp.Members {
		if m.UserID != team.Members[i].UserID {
			return fmt.Errorf("%w: member %d is %s, want %s", ErrMismatch, i, m.UserID, team.Members[i].UserID)
		}
		if m.Composite.Score < 0 || m.Composite.Score > 100 {
			return fmt.Errorf("%w: %s scored %d", ErrMismatch, m.UserID, m.Composite.Score)
		}
		if m.Composite.Grade == "" {
			return fmt.Errorf("%w: %s has no grade", ErrMismatch, m.UserID)
		}
		if m.Peer.Score != float64(m.Composite.Score) {
			return fmt.Errorf("%w: %s ranked with %.1f, scored %d", ErrMismatch, m.UserID, m.Peer.Score, m.Composite.Score)
		}
		if m.Peer.Percentile < 0 || m.Peer.Percentile > 100 || m.Peer.Position == "" {
			return fmt.Errorf("%w: %s has standing %.1f %q", ErrMismatch, m.UserID, m.Peer.Percentile, m.Peer.Position)
		}
	}

	s := resp.Summary
	if s.Count != len(team.Members) {
		return fmt.Errorf("%w: summary counts %d members", ErrMismatch, s.Count)
	}
	if s.Count > 0 && (s.Min > s.Median || s.Median > s.Max || s.Min > s.Mean || s.Mean > s.Max) {
		return fmt.Errorf("%w: summary out of order min=%.2f median=%.2f mean=%.2f max=%.2f",
			ErrMismatch, s.Min, s.Median, s.Mean, s.Max)
	}
	return nil
}
