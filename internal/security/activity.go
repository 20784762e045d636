package security

import (
	"time"

	"github.com/sirupsen/logrus"
)

type SuspiciousActivity struct {
	Identifier string         `json:"identifier"`
	Activity   string         `json:"activity"`
	Timestamp  time.Time      `json:"timestamp"`
	Details    map[string]any `json:"details,omitempty"`
}

func (g *Guard) LogSuspiciousActivity(identifier, activity string, details map[string]any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.appendActivityLocked(identifier, activity, details)
	logrus.WithFields(logrus.Fields{
		"identifier": identifier,
		"activity":   activity,
	}).Warn("suspicious activity recorded")
}

func (g *Guard) appendActivityLocked(identifier, activity string, details map[string]any) {
	g.activity = append(g.activity, SuspiciousActivity{
		Identifier: identifier,
		Activity:   activity,
		Timestamp:  g.now(),
		Details:    details,
	})
	if over := len(g.activity) - g.activityLimit; over > 0 {
		g.activity = append(g.activity[:0:0], g.activity[over:]...)
	}
}

// GetSuspiciousActivities returns up to limit entries, most recent first.
// A limit of zero or less returns everything retained.
func (g *Guard) GetSuspiciousActivities(limit int) []SuspiciousActivity {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(g.activity)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]SuspiciousActivity, 0, limit)
	for i := n - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, g.activity[i])
	}
	return out
}
