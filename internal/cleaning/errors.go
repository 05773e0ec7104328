package cleaning

import "errors"

// Fatal input errors. Either one aborts the run.
var (
	ErrInputMissing    = errors.New("required input missing")
	ErrSchemaViolation = errors.New("input violates schema contract")
)
