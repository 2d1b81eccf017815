// Package daily picks the date-keyed answer used by the "daily" game mode.
// Every server sharing a salt hands out the same word on the same UTC day.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// WordIndex returns a deterministic index for a date using HMAC(salt, YYYY-MM-DD) % answersLen.
func WordIndex(date time.Time, salt string, answersLen int) int {
	if answersLen <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// take first 8 bytes to uint64 for modulus distribution
	n := binary.BigEndian.Uint64(sum[:8])
	return int(n % uint64(answersLen))
}

// Picker resolves the answer for a given day from an ordered word list.
type Picker struct {
	Salt  string
	Words []string
	Now   func() time.Time
}

// Answer returns today's answer and its date key.
func (p Picker) Answer() (word, date string) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	t := now()
	if len(p.Words) == 0 {
		return "", DateKey(t)
	}
	return p.Words[WordIndex(t, p.Salt, len(p.Words))], DateKey(t)
}
