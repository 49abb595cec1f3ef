package level

import (
	"math"
	"time"
)

// ticker implements Level ticking methods.
type ticker struct {
	interval time.Duration
}

const (
	tpsSampleSize       = 20
	tpsWarningThreshold = 19.0
)

// tpsSampler averages the time between ticks over tpsSampleSize ticks.
type tpsSampler struct {
	sum time.Duration
	n   int
}

// add records the time since the previous tick. Once a full sample was
// collected, its ticks per second are returned and the sample is reset.
func (s *tpsSampler) add(d time.Duration) (float64, bool) {
	if d <= 0 {
		return 0, false
	}
	s.sum += d
	s.n++
	if s.n < tpsSampleSize {
		return 0, false
	}
	avg := s.sum / time.Duration(s.n)
	s.sum, s.n = 0, 0
	return 1.0 / avg.Seconds(), true
}

// tickLoop ticks the Level every interval until it is closed. A warning is
// logged once when the sampled ticks per second drop below
// tpsWarningThreshold, along with the POI sections still waiting to be
// written.
func (t ticker) tickLoop(l *Level) {
	tc := time.NewTicker(t.interval)
	defer tc.Stop()

	var sampler tpsSampler
	lastTick, behind := time.Now(), false
	for {
		select {
		case now := <-tc.C:
			if tps, ok := sampler.add(now.Sub(lastTick)); ok {
				l.tps.Store(math.Float64bits(tps))
				switch {
				case tps < tpsWarningThreshold && !behind:
					l.conf.Log.Warn("TPS dropped below threshold.", "tps", tps, "poiBacklog", l.POIBacklog())
					behind = true
				case tps >= tpsWarningThreshold && behind:
					l.conf.Log.Info("TPS recovered.", "tps", tps, "poiBacklog", l.POIBacklog())
					behind = false
				}
			}
			lastTick = now
			<-l.Exec(t.tick)
		case <-l.closing:
			l.running.Done()
			return
		}
	}
}

// tick performs a tick on the Level. Dirty POI sections are written for as
// long as the save budget of the Level allows, after which pending village
// distance updates are processed. The columns left unwritten are recorded as
// the POI backlog.
func (t ticker) tick(tx *Tx) {
	l := tx.level()
	l.currentTick.Add(1)

	deadline := time.Now().Add(l.conf.SaveBudget)
	l.pois.Tick(func() bool {
		return !l.conf.ReadOnly && time.Now().Before(deadline)
	})
	l.poiBacklog.Store(int64(l.pois.PendingWrites()))
}
