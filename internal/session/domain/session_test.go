package domain

import (
	"testing"
	"time"
)

func TestLive(t *testing.T) {
	now := time.Now().UTC()
	revoked := now.Add(-time.Minute)

	testCases := []struct {
		name string
		sess *Session
		want bool
	}{
		{"nil session", nil, false},
		{"live", &Session{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", &Session{ExpiresAt: now.Add(-time.Second)}, false},
		{"expires exactly now", &Session{ExpiresAt: now}, false},
		{"revoked", &Session{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.sess.Live(now); got != tc.want {
				t.Errorf("Live = %v, want %v", got, tc.want)
			}
		})
	}
}
