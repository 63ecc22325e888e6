package dynamo

import (
	"errors"
	"fmt"
)

// Construction errors. The subsystem refuses to initialize when any of these
// is returned.
var (
	// ErrDuplicateChannel indicates two motor channels share an identifier.
	ErrDuplicateChannel = errors.New("dynamo: duplicate motor channel id")

	// ErrRoleUnassigned indicates a required motor role has no channel.
	ErrRoleUnassigned = errors.New("dynamo: required motor role unassigned")

	// ErrRoleConflict indicates a role was assigned more than once.
	ErrRoleConflict = errors.New("dynamo: motor role assigned more than once")

	// ErrInvalidPolicy indicates an unsupported combination of sequence variants.
	ErrInvalidPolicy = errors.New("dynamo: invalid sequence policy")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownActuator indicates a characterization target that does not exist.
	ErrUnknownActuator = errors.New("dynamo: unknown actuator")

	// ErrUnknownIntegrator indicates a plant integrator name with no stepper.
	ErrUnknownIntegrator = errors.New("dynamo: unknown integrator")

	// ErrInsufficientData indicates too few samples for a model fit.
	ErrInsufficientData = errors.New("dynamo: insufficient samples for fit")
)

// ConfigError wraps a construction error with the offending field.
type ConfigError struct {
	Field   string
	Value   any
	Wrapped error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s (%s=%v)", e.Wrapped.Error(), e.Field, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}
