package estimator

import "errors"

var (
	// ErrShapeMismatch is returned when feature, label or weight dimensions disagree
	ErrShapeMismatch = errors.New("estimator: input shape mismatch")
	// ErrNaNInput is returned when features or labels contain NaN
	ErrNaNInput = errors.New("estimator: input contains NaN")
	// ErrNoSamples is returned when fitting is attempted with zero rows
	ErrNoSamples = errors.New("estimator: no samples")
	// ErrDiverged is returned when coefficients become non-finite during fitting
	ErrDiverged = errors.New("estimator: coefficients diverged")
	// ErrNotFitted is returned when predicting before any fit
	ErrNotFitted = errors.New("estimator: not fitted")
	// ErrUnknownKind is returned for an unrecognised estimator kind
	ErrUnknownKind = errors.New("estimator: unknown kind")
	// ErrUnknownFormat is returned when a serialized model has an unsupported format or version
	ErrUnknownFormat = errors.New("estimator: unknown model format")
	// ErrInvalidParams is returned for an unsupported loss or penalty
	ErrInvalidParams = errors.New("estimator: invalid parameters")
)
