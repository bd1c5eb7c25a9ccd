package utils

import "github.com/google/uuid"

// RunID generates the identifier stamped on a simulation run's "simulation
// built" and "simulation finished" log lines. The printed stats summary
// does not carry it.
func RunID() string {
	return uuid.NewString()
}
