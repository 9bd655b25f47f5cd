package txnid

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/paygate/ports"
)

// Prefix starts every transaction id we send to the provider
const Prefix = "TXN-"

const (
	StrategyUUID      = "uuid"
	StrategyTimestamp = "timestamp"
)

// UUIDGenerator suffixes the prefix with a random UUID
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return Prefix + uuid.NewString()
}

// TimestampGenerator suffixes the prefix with the current Unix time in milliseconds.
// Two transactions started in the same millisecond get the same id.
type TimestampGenerator struct {
	Now func() time.Time
}

func (g TimestampGenerator) NewID() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return Prefix + strconv.FormatInt(now().UnixMilli(), 10)
}

// New returns the generator for strategy
func New(strategy string) (ports.TransactionIDGenerator, error) {
	switch strategy {
	case "", StrategyUUID:
		return UUIDGenerator{}, nil
	case StrategyTimestamp:
		return TimestampGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown transaction id strategy %q", strategy)
	}
}
