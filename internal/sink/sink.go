// Package sink exports verdicts to external systems.
package sink

import (
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/model"
	"FlowSentinel/internal/probe"
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// New builds a writer for every enabled sink. With no sink enabled the
// returned Multi discards verdicts.
func New(defs []config.SinkDef) (Multi, error) {
	var writers Multi
	for _, def := range defs {
		if !def.Enabled {
			continue
		}
		var (
			w   model.VerdictWriter
			err error
		)
		switch def.Type {
		case "clickhouse":
			w, err = NewClickHouseWriter(def.ClickHouse)
		case "nats":
			w, err = probe.NewPublisher(def.NATS)
		case "file":
			w = NewFileWriter(def.RootPath)
		default:
			err = fmt.Errorf("unknown sink type: '%s'", def.Type)
		}
		if err != nil {
			writers.Close()
			return nil, fmt.Errorf("failed to create %s sink: %w", def.Type, err)
		}
		log.Infof("Verdict sink '%s' enabled.", def.Type)
		writers = append(writers, w)
	}
	return writers, nil
}

// Multi fans verdicts out to several writers.
type Multi []model.VerdictWriter

// Write delivers to every writer and joins their errors.
func (m Multi) Write(ctx context.Context, source string, verdicts []model.Verdict) error {
	var errs []error
	for _, w := range m {
		if err := w.Write(ctx, source, verdicts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, w := range m {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
