package postgresadapter

import (
	"time"

	"agora/contexts/identity-access/capability-service/ports"
)

// SystemClock is the wall-clock implementation of ports.Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

var _ ports.Clock = SystemClock{}
