// Package collector turns one OS enumeration pass into ConnectionRecords.
package collector

import (
	"github.com/pratik-anurag/openport/internal/logging"
	"github.com/pratik-anurag/openport/internal/model"
	"github.com/pratik-anurag/openport/internal/sockets"
)

// Outcome distinguishes an empty result caused by failure from a host with
// nothing to report.
type Outcome int

const (
	Observed Outcome = iota
	NothingObserved
	EnumerationFailed
)

func (o Outcome) String() string {
	switch o {
	case Observed:
		return "observed"
	case NothingObserved:
		return "nothing-observed"
	default:
		return "enumeration-failed"
	}
}

// Failure is one dropped descriptor.
type Failure struct {
	Index  int
	Source string
	Err    error
}

// Result is the outcome of a single Collect call. Records keep OS order.
type Result struct {
	Records  []model.ConnectionRecord
	Failures []Failure
	// Err is set, wrapping sockets.ErrEnumerationUnavailable, when the OS
	// call itself failed. Records is then empty.
	Err error
}

func (r Result) Outcome() Outcome {
	switch {
	case r.Err != nil:
		return EnumerationFailed
	case len(r.Records) == 0:
		return NothingObserved
	default:
		return Observed
	}
}

type Collector struct {
	enum sockets.Enumerator
	log  *logging.Logger
}

func New(enum sockets.Enumerator, log *logging.Logger) *Collector {
	if log == nil {
		log = logging.Discard()
	}
	return &Collector{enum: enum, log: log.WithComponent("collector")}
}

// Collect enumerates once and normalizes every descriptor independently.
// It never returns an error; failures are logged and reported in Result.
func (c *Collector) Collect() Result {
	raws, err := c.enum.Enumerate()
	if err != nil {
		c.log.Error("connection enumeration failed", "error", err)
		return Result{Err: err}
	}

	type item struct {
		rec model.ConnectionRecord
		err error
	}
	items := make([]item, len(raws))
	for i, raw := range raws {
		rec, err := sockets.Normalize(raw)
		items[i] = item{rec: rec, err: err}
	}

	res := Result{Records: make([]model.ConnectionRecord, 0, len(raws))}
	for i, it := range items {
		if it.err != nil {
			c.log.Error("skipping connection record", "index", i, "error", it.err, "source", raws[i].Source)
			res.Failures = append(res.Failures, Failure{Index: i, Source: raws[i].Source, Err: it.err})
			continue
		}
		res.Records = append(res.Records, it.rec)
	}

	c.log.Info("collected connections", "records", len(res.Records), "dropped", len(res.Failures))
	return res
}
