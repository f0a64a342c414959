package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/desi_occasions/internal/models"
	"github.com/Skotchmaster/desi_occasions/internal/notify"
	"github.com/Skotchmaster/desi_occasions/internal/payments"
	"github.com/Skotchmaster/desi_occasions/internal/repo"
)

const testBaseURL = "https://desi.example"

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testClock() Clock {
	return Clock{Loc: time.UTC, Now: func() time.Time { return testNow }}
}

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	r := &repo.GormRepo{DB: db}
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func ptr[T any](v T) *T { return &v }

func seedVendor(t *testing.T, r *repo.GormRepo, slug string, mutate ...func(*models.Vendor)) *models.Vendor {
	t.Helper()
	v := &models.Vendor{
		UserID:       uuid.New(),
		Slug:         slug,
		Name:         slug,
		City:         "Leicester",
		WhatsAppE164: "+447700900001",
	}
	for _, m := range mutate {
		m(v)
	}
	require.NoError(t, r.SaveVendor(context.Background(), v))
	return v
}

func seedItem(t *testing.T, r *repo.GormRepo, vendorID uuid.UUID, kind, slot, title string, pence *int64) *models.CatalogItem {
	t.Helper()
	it := &models.CatalogItem{VendorID: vendorID, Kind: kind, Title: title, PricePence: pence}
	if slot != "" {
		it.MealSlot = ptr(slot)
	}
	require.NoError(t, r.CreateCatalogItem(context.Background(), it))
	return it
}

type fakeNotifier struct {
	mu   sync.Mutex
	jobs []notify.Job
}

func (f *fakeNotifier) Notify(_ context.Context, job notify.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
}

func (f *fakeNotifier) Jobs() []notify.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Job(nil), f.jobs...)
}

type published struct {
	Topic string
	Key   string
	Event any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{Topic: topic, Key: key, Event: event})
	return f.err
}

func (f *fakePublisher) Events() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.events...)
}

type fakeProvider struct {
	calls []payments.SessionRequest
	err   error
}

func (f *fakeProvider) CreateSession(_ context.Context, req payments.SessionRequest) (*payments.Session, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &payments.Session{ID: "cs_test_1", URL: "https://checkout.stripe.example/cs_test_1"}, nil
}
