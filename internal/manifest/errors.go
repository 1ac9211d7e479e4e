package manifest

import (
	"errors"
	"fmt"
)

// StepNotFoundError is returned when an operation needs a step that was never started.
type StepNotFoundError struct {
	Op   string
	Step string
}

func (e *StepNotFoundError) Error() string {
	return fmt.Sprintf("%s: failed to find any '%s' steps", e.Op, e.Step)
}

func IsStepNotFound(err error) bool {
	notFound := &StepNotFoundError{}
	return errors.As(err, &notFound)
}
