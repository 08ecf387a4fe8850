package model

import "fmt"

// Step is one stage of the linear wizard
type Step int

const (
	StepPhone Step = iota
	StepRole
	StepOTP
	StepProfile
	StepComplete
)

var stepNames = [...]string{"phone", "role", "otp", "profile", "complete"}

func (s Step) Valid() bool {
	return s >= StepPhone && s <= StepComplete
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// ParseStep maps a step name back to its value
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", name)
}
