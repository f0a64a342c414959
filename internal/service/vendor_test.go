package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/desi_occasions/internal/models"
	"github.com/Skotchmaster/desi_occasions/internal/transport"
)

type fakeSearch struct {
	indexed []uuid.UUID
	ids     []uuid.UUID
	err     error
	queries []string
}

func (f *fakeSearch) IndexVendor(_ context.Context, v *models.Vendor) error {
	f.indexed = append(f.indexed, v.ID)
	return f.err
}

func (f *fakeSearch) SearchVendorIDs(_ context.Context, query string, _ int) ([]uuid.UUID, error) {
	f.queries = append(f.queries, query)
	return f.ids, f.err
}

func profileRequest() transport.VendorProfileRequest {
	return transport.VendorProfileRequest{
		Name:               "Spice House",
		City:               "Leicester",
		WhatsApp:           "+44 7700 900 123",
		LunchCapacity:      ptr(10),
		LunchCutoff:        ptr("11:30"),
		Categories:         []string{"Thali", " thali ", "Sweets"},
		SupportedOccasions: []string{"Wedding", "diwali"},
		DietaryTags:        []string{"veg"},
	}
}

func TestVendorService_SaveProfile_CreatesAndUpdates(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	search := &fakeSearch{}
	svc := &VendorService{Repo: r, Search: search, Clock: testClock()}
	user := uuid.New()

	v, err := svc.SaveProfile(context.Background(), user, profileRequest())
	require.NoError(t, err)
	assert.Equal(t, "spice-house", v.Slug)
	assert.Equal(t, "+447700900123", v.WhatsAppE164)
	assert.Equal(t, []string{"thali", "sweets"}, []string(v.Categories))
	assert.Equal(t, []string{"wedding", "diwali"}, []string(v.SupportedOccasions))
	require.NotNil(t, v.LunchCutoff)
	assert.Equal(t, "11:30", *v.LunchCutoff)
	assert.Equal(t, []uuid.UUID{v.ID}, search.indexed)

	req := profileRequest()
	req.Name = "Spice House Kitchen"
	req.Slug = "Spice House"
	req.LunchCutoff = ptr("")
	updated, err := svc.SaveProfile(context.Background(), user, req)
	require.NoError(t, err)
	assert.Equal(t, v.ID, updated.ID)
	assert.Equal(t, "Spice House Kitchen", updated.Name)
	assert.Equal(t, "spice-house", updated.Slug)
	assert.Nil(t, updated.LunchCutoff)

	own, err := svc.OwnVendor(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "Spice House Kitchen", own.Name)
}

func TestVendorService_SaveProfile_SlugTaken(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	seedVendor(t, r, "spice-house")
	svc := &VendorService{Repo: r}

	_, err := svc.SaveProfile(context.Background(), uuid.New(), profileRequest())
	assert.ErrorIs(t, err, ErrConflict)
}

func TestVendorService_SaveProfile_IndexFailureIgnored(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &VendorService{Repo: r, Search: &fakeSearch{err: assert.AnError}}

	_, err := svc.SaveProfile(context.Background(), uuid.New(), profileRequest())
	assert.NoError(t, err)
}

func TestVendorService_SaveProfile_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*transport.VendorProfileRequest)
	}{
		{name: "empty name", mutate: func(r *transport.VendorProfileRequest) { r.Name = "  " }},
		{name: "unsluggable", mutate: func(r *transport.VendorProfileRequest) { r.Name = "!!!" }},
		{name: "bad phone", mutate: func(r *transport.VendorProfileRequest) { r.WhatsApp = "07700" }},
		{name: "negative capacity", mutate: func(r *transport.VendorProfileRequest) { r.DinnerCapacity = ptr(-1) }},
		{name: "bad cutoff", mutate: func(r *transport.VendorProfileRequest) { r.BreakfastCutoff = ptr("25:00") }},
		{name: "unknown occasion", mutate: func(r *transport.VendorProfileRequest) { r.SupportedOccasions = []string{"birthday"} }},
		{name: "unknown diet", mutate: func(r *transport.VendorProfileRequest) { r.DietaryTags = []string{"keto"} }},
		{name: "map url scheme", mutate: func(r *transport.VendorProfileRequest) { r.MapURL = ptr("ftp://maps") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &VendorService{Repo: newTestRepo(t)}
			req := profileRequest()
			tt.mutate(&req)
			_, err := svc.SaveProfile(context.Background(), uuid.New(), req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestVendorService_SaveProfile_LongSlugIsCut(t *testing.T) {
	t.Parallel()

	svc := &VendorService{Repo: newTestRepo(t)}
	req := profileRequest()
	req.Slug = "the very long name of a kitchen that keeps going and going forever"
	v, err := svc.SaveProfile(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(v.Slug), 50)
	assert.NotEqual(t, '-', rune(v.Slug[len(v.Slug)-1]))
}

func seedDirectory(t *testing.T, svc *VendorService) (a, b, c *models.Vendor) {
	t.Helper()
	a = seedVendor(t, svc.Repo, "alpha-kitchen", func(v *models.Vendor) {
		v.Name, v.City = "Alpha Kitchen", "Leicester"
		v.Categories = []string{"thali"}
		v.SupportedOccasions = []string{"diwali"}
		v.DietaryTags = []string{"veg"}
	})
	b = seedVendor(t, svc.Repo, "bravo-sweets", func(v *models.Vendor) {
		v.Name, v.City = "Bravo Sweets", "Leicester"
		v.Categories = []string{"sweets"}
		v.SupportedOccasions = []string{"diwali", "wedding"}
		v.IsFeatured = true
	})
	c = seedVendor(t, svc.Repo, "charlie-grill", func(v *models.Vendor) {
		v.Name, v.City = "Charlie Grill", "London"
		v.Categories = []string{"grill"}
		v.DietaryTags = []string{"halal"}
	})
	return a, b, c
}

func slugsOf(vs []models.Vendor) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Slug)
	}
	return out
}

func TestVendorService_Directory(t *testing.T) {
	t.Parallel()

	svc := &VendorService{Repo: newTestRepo(t)}
	seedDirectory(t, svc)
	ctx := context.Background()

	all, err := svc.Directory(ctx, transport.DirectoryQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, []string{"bravo-sweets", "alpha-kitchen", "charlie-grill"}, slugsOf(all.Vendors))

	tests := []struct {
		name string
		q    transport.DirectoryQuery
		want []string
	}{
		{name: "city", q: transport.DirectoryQuery{City: "leicester"}, want: []string{"bravo-sweets", "alpha-kitchen"}},
		{name: "category", q: transport.DirectoryQuery{Category: "Grill"}, want: []string{"charlie-grill"}},
		{name: "occasion", q: transport.DirectoryQuery{Occasion: "diwali"}, want: []string{"bravo-sweets", "alpha-kitchen"}},
		{name: "diet", q: transport.DirectoryQuery{Diet: "halal"}, want: []string{"charlie-grill"}},
		{name: "text", q: transport.DirectoryQuery{Q: "sweet"}, want: []string{"bravo-sweets"}},
		{name: "nothing", q: transport.DirectoryQuery{City: "Paris"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Directory(ctx, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, slugsOf(res.Vendors))
			assert.NotNil(t, res.Vendors)
		})
	}

	page, err := svc.Directory(ctx, transport.DirectoryQuery{Page: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, []string{"charlie-grill"}, slugsOf(page.Vendors))

	tagged, err := svc.Directory(ctx, transport.DirectoryQuery{Occasion: "Diwali", Page: 2, Size: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, tagged.Total)
	assert.Equal(t, 1, tagged.Size)
	assert.Equal(t, []string{"alpha-kitchen"}, slugsOf(tagged.Vendors))

	past, err := svc.Directory(ctx, transport.DirectoryQuery{Page: 9})
	require.NoError(t, err)
	assert.Equal(t, 3, past.Total)
	assert.Empty(t, past.Vendors)
	assert.NotNil(t, past.Vendors)
}

func TestVendorService_Directory_UsesSearchIndex(t *testing.T) {
	t.Parallel()

	search := &fakeSearch{}
	svc := &VendorService{Repo: newTestRepo(t), Search: search}
	a, _, c := seedDirectory(t, svc)
	search.ids = []uuid.UUID{c.ID, uuid.New(), a.ID}

	res, err := svc.Directory(context.Background(), transport.DirectoryQuery{Q: "kichen"})
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie-grill", "alpha-kitchen"}, slugsOf(res.Vendors))
	assert.Equal(t, []string{"kichen"}, search.queries)

	res, err = svc.Directory(context.Background(), transport.DirectoryQuery{Q: "kichen", City: "london"})
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie-grill"}, slugsOf(res.Vendors))

	// no text query, no index round trip
	_, err = svc.Directory(context.Background(), transport.DirectoryQuery{City: "london"})
	require.NoError(t, err)
	assert.Len(t, search.queries, 2)
}

func TestVendorService_Directory_SearchFailureFallsBack(t *testing.T) {
	t.Parallel()

	svc := &VendorService{Repo: newTestRepo(t), Search: &fakeSearch{err: assert.AnError}}
	seedDirectory(t, svc)

	res, err := svc.Directory(context.Background(), transport.DirectoryQuery{Q: "grill"})
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie-grill"}, slugsOf(res.Vendors))
}

func TestVendorService_Storefront(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &VendorService{Repo: r}
	v := seedVendor(t, r, "spice-house")
	seedItem(t, r, v.ID, models.OrderTypeDaily, models.SlotLunch, "Thali", ptr(int64(500)))
	seedItem(t, r, v.ID, models.OrderTypeDaily, models.SlotDinner, "Biryani", nil)
	seedItem(t, r, v.ID, models.OrderTypeOccasion, "", "Platter", nil)
	require.NoError(t, r.AddMedia(context.Background(), []models.VendorMedia{{VendorID: v.ID, URL: "https://cdn.example/a.jpg"}}))

	res, err := svc.Storefront(context.Background(), "spice-house", "", "")
	require.NoError(t, err)
	assert.Len(t, res.Catalog, 3)
	assert.Len(t, res.Gallery, 1)

	res, err = svc.Storefront(context.Background(), "spice-house", models.OrderTypeDaily, models.SlotLunch)
	require.NoError(t, err)
	require.Len(t, res.Catalog, 1)
	assert.Equal(t, "Thali", res.Catalog[0].Title)

	_, err = svc.Storefront(context.Background(), "spice-house", "", "brunch")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Storefront(context.Background(), "missing", "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVendorService_Catalog(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &VendorService{Repo: r}
	v := seedVendor(t, r, "spice-house")
	ctx := context.Background()

	item, err := svc.AddCatalogItem(ctx, v.UserID, transport.CatalogItemRequest{
		Kind: models.OrderTypeDaily, MealSlot: models.SlotLunch, Title: "Thali", PriceGBP: ptr(4.5),
	})
	require.NoError(t, err)
	require.NotNil(t, item.PricePence)
	assert.Equal(t, int64(450), *item.PricePence)

	_, err = svc.AddCatalogItem(ctx, v.UserID, transport.CatalogItemRequest{
		Kind: models.OrderTypeOccasion, Title: "Platter", Description: ptr("  "),
	})
	require.NoError(t, err)

	bad := []transport.CatalogItemRequest{
		{Kind: models.OrderTypeDaily, Title: "No slot"},
		{Kind: models.OrderTypeOccasion, MealSlot: models.SlotLunch, Title: "Slot on package"},
		{Kind: "weekly", Title: "Wrong kind"},
		{Kind: models.OrderTypeOccasion, Title: "  "},
		{Kind: models.OrderTypeOccasion, Title: "Negative", PriceGBP: ptr(-1.0)},
		{Kind: models.OrderTypeOccasion, Title: "Too pricey", PriceGBP: ptr(2e6)},
		{Kind: models.OrderTypeOccasion, Title: "Overflow", PriceGBP: ptr(1e17)},
	}
	for _, req := range bad {
		_, err := svc.AddCatalogItem(ctx, v.UserID, req)
		assert.ErrorIs(t, err, ErrValidation, req.Title)
	}

	items, err := svc.OwnCatalog(ctx, v.UserID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = svc.AddCatalogItem(ctx, uuid.New(), transport.CatalogItemRequest{Kind: models.OrderTypeOccasion, Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVendorService_Gallery(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &VendorService{Repo: r}
	v := seedVendor(t, r, "spice-house")
	ctx := context.Background()

	added, err := svc.AddGallery(ctx, v.UserID, []string{"https://cdn.example/a.jpg", " ", "https://cdn.example/b.jpg"})
	require.NoError(t, err)
	assert.Len(t, added, 2)

	_, err = svc.AddGallery(ctx, v.UserID, []string{"not a url"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.AddGallery(ctx, v.UserID, nil)
	assert.ErrorIs(t, err, ErrValidation)

	media, err := svc.OwnGallery(ctx, v.UserID)
	require.NoError(t, err)
	assert.Len(t, media, 2)
}

func TestVendorService_DashboardAndCapacity(t *testing.T) {
	t.Parallel()

	f := newOrderFixture(t, func(v *models.Vendor) {
		v.LunchCapacity = ptr(2)
		v.BreakfastCutoff = ptr("09:00")
	})
	svc := &VendorService{Repo: f.repo, Clock: testClock()}
	ctx := context.Background()
	today := testNow.Format("2006-01-02")

	req := f.lunchRequest(transport.Selection{ItemID: f.thali.ID, Qty: 1})
	req.DeliveryDate = today
	created, err := f.svc.CreateOrder(ctx, "spice-house", req, nil)
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, "spice-house", f.lunchRequest(transport.Selection{ItemID: f.thali.ID, Qty: 1}), nil)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, created.Order.ID, models.OrderStatusConfirmed, f.vendor.UserID)
	require.NoError(t, err)

	dash, err := svc.DashboardOrders(ctx, f.vendor.UserID, transport.DashboardOrdersQuery{})
	require.NoError(t, err)
	assert.Len(t, dash.Orders, 2)
	assert.Equal(t, int64(1), dash.Counts[models.OrderStatusSent])
	assert.Equal(t, int64(1), dash.Counts[models.OrderStatusConfirmed])
	assert.Equal(t, int64(0), dash.Counts[models.OrderStatusCancelled])
	assert.Len(t, dash.Counts, len(models.OrderStatuses))

	dash, err = svc.DashboardOrders(ctx, f.vendor.UserID, transport.DashboardOrdersQuery{Date: today})
	require.NoError(t, err)
	assert.Len(t, dash.Orders, 1)

	_, err = svc.DashboardOrders(ctx, f.vendor.UserID, transport.DashboardOrdersQuery{Date: "yesterday"})
	assert.ErrorIs(t, err, ErrValidation)

	capRes, err := svc.Capacity(ctx, f.vendor.UserID, "")
	require.NoError(t, err)
	assert.Equal(t, today, capRes.Date)
	require.Len(t, capRes.Slots, 3)

	bySlot := map[string]transport.SlotCapacity{}
	for _, s := range capRes.Slots {
		bySlot[s.Slot] = s
	}
	lunch := bySlot[models.SlotLunch]
	assert.Equal(t, int64(1), lunch.Used)
	require.NotNil(t, lunch.Remaining)
	assert.Equal(t, int64(1), *lunch.Remaining)
	assert.False(t, lunch.Closed)
	assert.True(t, bySlot[models.SlotBreakfast].Closed)
	assert.Nil(t, bySlot[models.SlotDinner].Remaining)

	_, err = svc.Capacity(ctx, uuid.New(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVendorService_NotificationFailures(t *testing.T) {
	t.Parallel()

	f := newOrderFixture(t)
	svc := &VendorService{Repo: f.repo}
	created, err := f.svc.CreateOrder(context.Background(), "spice-house",
		f.lunchRequest(transport.Selection{ItemID: f.thali.ID, Qty: 1}), nil)
	require.NoError(t, err)

	require.NoError(t, f.repo.RecordFailure(context.Background(), &models.NotificationFailure{
		OrderID: &created.Order.ID, Kind: models.NotifyOrderCreated, ToE164: f.vendor.WhatsAppE164, Body: "b", Error: "boom",
	}))

	rows, err := svc.NotificationFailures(context.Background(), f.vendor.UserID, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "boom", rows[0].Error)

	for i := 0; i < 110; i++ {
		require.NoError(t, f.repo.RecordFailure(context.Background(), &models.NotificationFailure{
			OrderID: &created.Order.ID, Kind: models.NotifyOrderCreated, ToE164: f.vendor.WhatsAppE164, Body: "b", Error: "again",
		}))
	}
	rows, err = svc.NotificationFailures(context.Background(), f.vendor.UserID, 500)
	require.NoError(t, err)
	assert.Len(t, rows, 100)

	rows, err = svc.NotificationFailures(context.Background(), f.vendor.UserID, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 50)
}
