package alerting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
)

var _ ports.AlertSink = MultiSink(nil)

// MultiSink raises an alert on every sink, joining their errors.
type MultiSink []ports.AlertSink

func (m MultiSink) Name() string {
	names := make([]string, len(m))
	for i, s := range m {
		names[i] = s.Name()
	}
	return "multi[" + strings.Join(names, ",") + "]"
}

func (m MultiSink) Raise(ctx context.Context, alert domain.Alert) error {
	var errs []error
	for _, s := range m {
		if err := s.Raise(ctx, alert); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
