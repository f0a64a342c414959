package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Skotchmaster/desi_occasions/internal/models"
	"github.com/Skotchmaster/desi_occasions/internal/notify"
	"github.com/Skotchmaster/desi_occasions/pkg/logging"
)

const dateLayout = "2006-01-02"

type Notifier interface {
	Notify(ctx context.Context, job notify.Job)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type VendorSearch interface {
	IndexVendor(ctx context.Context, v *models.Vendor) error
	SearchVendorIDs(ctx context.Context, query string, size int) ([]uuid.UUID, error)
}

// Clock is the wall clock in the marketplace time zone.
type Clock struct {
	Loc *time.Location
	Now func() time.Time
}

func (c Clock) now() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Loc
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

func (c Clock) today() string { return c.now().Format(dateLayout) }

// cutoffPassed reports whether ordering for date has closed at cutoff ("HH:MM").
func (c Clock) cutoffPassed(date string, cutoff *string) bool {
	if cutoff == nil || *cutoff == "" {
		return false
	}
	now := c.now()
	if date != now.Format(dateLayout) {
		return false
	}
	return now.Format("15:04") >= *cutoff
}

func parseDate(field, s string) (string, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrValidation, field)
	}
	return t.Format(dateLayout), nil
}

func publish(ctx context.Context, pub EventPublisher, topic, key string, event any) {
	if pub == nil {
		return
	}
	if err := pub.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", zap.String("topic", topic), zap.String("key", key), zap.Error(err))
	}
}
