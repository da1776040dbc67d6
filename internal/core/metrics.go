package core

import (
	"time"

	"github.com/oranolio956/qa-automation-framework-sub006/pkg/api"
)

// Summarize derives run-level rates from a finished session. Every ratio is
// zero when its denominator is zero.
func Summarize(s *Session) api.Metrics {
	created := len(s.Created)
	elapsed := s.Elapsed()

	var m api.Metrics
	m.Elapsed = elapsed
	m.ElapsedSeconds = elapsed.Seconds()
	if s.TotalRequested > 0 {
		m.SuccessRate = float64(created) / float64(s.TotalRequested)
	}
	if created > 0 {
		verified := 0
		for _, r := range s.Created {
			if r.LoginVerified {
				verified++
			}
		}
		m.LoginVerifiedRate = float64(verified) / float64(created)
		m.AvgDurationPerCreated = elapsed / time.Duration(created)
		m.AvgSecondsPerCreated = m.AvgDurationPerCreated.Seconds()
	}
	return m
}
