package estimator

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	// FormatName tags every serialized model
	FormatName = "punter-sgd"
	// FormatVersion is bumped whenever the state layout changes
	FormatVersion = 1
)

// envelope is the persisted form of an estimator. State is the kind-specific
// msgpack payload.
type envelope struct {
	Format  string             `msgpack:"format"`
	Version int                `msgpack:"version"`
	Kind    string             `msgpack:"kind"`
	Params  Params             `msgpack:"params"`
	State   msgpack.RawMessage `msgpack:"state"`
}

type classifierState struct {
	Classes []float64     `msgpack:"classes"`
	Models  []linearModel `msgpack:"models"`
}

// Marshal serializes an estimator into the versioned model format
func Marshal(e Estimator) ([]byte, error) {
	var state interface{}
	switch est := e.(type) {
	case *Regressor:
		state = est.model
	case *Classifier:
		state = classifierState{Classes: est.classes, Models: est.models}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, e)
	}

	raw, err := msgpack.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s state: %w", e.Kind(), err)
	}

	data, err := msgpack.Marshal(&envelope{
		Format:  FormatName,
		Version: FormatVersion,
		Kind:    e.Kind(),
		Params:  e.Params(),
		State:   raw,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode model envelope: %w", err)
	}
	return data, nil
}

// Unmarshal restores an estimator written by Marshal
func Unmarshal(data []byte) (Estimator, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode model envelope: %w", err)
	}
	if env.Format != FormatName || env.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %s v%d", ErrUnknownFormat, env.Format, env.Version)
	}

	switch env.Kind {
	case KindRegressor:
		r, err := NewRegressor(env.Params)
		if err != nil {
			return nil, err
		}
		if err := msgpack.Unmarshal(env.State, &r.model); err != nil {
			return nil, fmt.Errorf("failed to decode regressor state: %w", err)
		}
		return r, nil
	case KindClassifier:
		c, err := NewClassifier(env.Params)
		if err != nil {
			return nil, err
		}
		var state classifierState
		if err := msgpack.Unmarshal(env.State, &state); err != nil {
			return nil, fmt.Errorf("failed to decode classifier state: %w", err)
		}
		if len(state.Classes) != len(state.Models) || len(state.Classes) == 0 {
			return nil, fmt.Errorf("%w: %d classes, %d models", ErrShapeMismatch, len(state.Classes), len(state.Models))
		}
		c.classes = state.Classes
		c.models = state.Models
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, env.Kind)
	}
}
