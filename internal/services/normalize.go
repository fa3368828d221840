package services

import (
	"errors"

	"productapi/internal/metrics"
	"productapi/internal/repositories"
	"productapi/pkg/logger"

	pkgerrors "github.com/pkg/errors"
)

// Normalizer turns storage and domain failures into the closed error taxonomy
// and records every failure it sees.
type Normalizer struct {
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewNormalizer creates a Normalizer. m may be nil.
func NewNormalizer(log *logger.Logger, m *metrics.Metrics) *Normalizer {
	if log == nil {
		log = logger.Nop()
	}
	return &Normalizer{log: log, metrics: m}
}

// Normalize maps err for operation op. Unrecognized errors are returned
// unchanged apart from an attached stack trace.
func (n *Normalizer) Normalize(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		typed *Error
		dup   *repositories.DuplicateKeyError
	)
	switch {
	case errors.As(err, &typed):
	case errors.As(err, &dup):
		typed = DuplicateKey(dup.Field, err)
	case errors.Is(err, repositories.ErrMalformedID):
		typed = InvalidIdentifier("id", err)
	case errors.Is(err, repositories.ErrNoMatch):
		typed = NotFound("product not found", err)
	default:
		err = pkgerrors.WithStack(err)
		n.log.Error().
			Stack().
			Err(err).
			Str("operation", op).
			Str("kind", KindInternal.String()).
			Msg("product operation failed")
		n.metrics.ObserveError(op, KindInternal.String())
		return err
	}

	event := n.log.Error().
		Str("operation", op).
		Str("kind", typed.Kind.String()).
		Str("code", typed.Kind.Code())
	if typed.Field != "" {
		event = event.Str("field", typed.Field)
	}
	if typed.Err != nil {
		event = event.AnErr("cause", typed.Err)
	}
	event.Msg(typed.Message)
	n.metrics.ObserveError(op, typed.Kind.String())
	return typed
}
