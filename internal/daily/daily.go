// internal/daily/daily.go
//
// Exercise of the day.
// Each catalog exercise gets a score HMAC(salt, date|id) and the highest score
// wins (rendezvous hashing). Every server instance sharing a salt agrees
// without coordination, and adding an exercise to the catalog only changes
// the days that exercise wins.

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

// Pick returns the index into ids of the exercise for date, or -1 when ids
// is empty. The result does not depend on the order of ids.
func Pick(date time.Time, salt string, ids []string) int {
	key := DateKey(date)
	best := -1
	var top uint64
	for i, id := range ids {
		s := score(salt, key, id)
		if best < 0 || s > top || (s == top && id < ids[best]) {
			best, top = i, s
		}
	}
	return best
}

func score(salt, key, id string) uint64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(key))
	h.Write([]byte{0})
	h.Write([]byte(id))
	return binary.BigEndian.Uint64(h.Sum(nil)[:8])
}
