package store

import (
	"math"
	"time"
)

// Decay scoring constants.
const (
	// dailyDecayRate is the per-day multiplier in the V1 formula.
	dailyDecayRate = 0.95
	// minAccessFactor floors the access-count factor so untouched
	// chunks still decay smoothly instead of dropping to zero.
	minAccessFactor = 0.1
)

// daysSince returns whole days of inactivity. A chunk with neither a
// last-access nor a creation stamp counts as fresh.
func daysSince(c *Chunk, now time.Time) float64 {
	last := c.LastAccessed
	if c.Timestamp > last {
		last = c.Timestamp
	}
	if last == 0 {
		return 0
	}
	days := float64(now.Unix()-last) / 86400.0
	if days < 0 {
		return 0
	}
	return days
}

// DecayScore computes the default recency-weighted importance of a chunk:
//
//	base_quality * 0.95^days * max(log(access_count+1), 0.1)
//
// Scores below the stale threshold mark a chunk for review; the archive
// sentinel -1.0 is never produced here.
func DecayScore(c *Chunk, now time.Time) float64 {
	const baseQuality = 1.0
	days := daysSince(c, now)

	accessFactor := math.Log(float64(c.AccessCount) + 1)
	if accessFactor < minAccessFactor {
		accessFactor = minAccessFactor
	}

	return baseQuality * math.Pow(dailyDecayRate, days) * accessFactor
}

// DecayScoreV2 computes the importance-weighted exponential variant:
//
//	base * importance * exp(-ln2/H * days) * (1 + 0.1*log(1+access_count))
//
// with half-life H in days. Used by research-grade rescoring when an
// importance weight is known.
func DecayScoreV2(c *Chunk, importance, halfLifeDays float64, now time.Time) float64 {
	const base = 1.0
	if halfLifeDays <= 0 {
		halfLifeDays = 30
	}
	days := daysSince(c, now)

	decay := math.Exp(-math.Ln2 / halfLifeDays * days)
	accessBoost := 1 + 0.1*math.Log(1+float64(c.AccessCount))

	return base * importance * decay * accessBoost
}
