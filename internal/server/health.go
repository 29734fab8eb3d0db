package server

import "fmt"

// State is the closed set of health labels.
type State string

const (
	Healthy      State = "Healthy"
	Unhealthy    State = "Unhealthy"
	Deregistered State = "Deregistered"
	Degraded     State = "Degraded"
	Down         State = "Down"
	Unknown      State = "Unknown"
)

// Health is the result of one health check. Produced fresh on every check,
// never cached. Reason carries the probe detail for the states that have
// one.
type Health struct {
	State  State
	Reason string
}

func healthOf(state State) Health {
	return Health{State: state}
}

func healthWithReason(state State, reason string) Health {
	return Health{State: state, Reason: reason}
}

func (h Health) String() string {
	if h.Reason == "" {
		return string(h.State)
	}
	return fmt.Sprintf("%s (%s)", h.State, h.Reason)
}
