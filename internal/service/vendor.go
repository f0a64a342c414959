package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Skotchmaster/desi_occasions/internal/models"
	"github.com/Skotchmaster/desi_occasions/internal/repo"
	"github.com/Skotchmaster/desi_occasions/internal/transport"
	"github.com/Skotchmaster/desi_occasions/internal/util"
	"github.com/Skotchmaster/desi_occasions/pkg/logging"
)

const (
	maxVendorName   = 60
	maxVendorSlug   = 50
	maxVendorCity   = 40
	maxMapURL       = 240
	maxMediaURL     = 500
	maxItemTitle    = 80
	maxItemDesc     = 180
	maxGalleryBatch = 20
	searchWindow    = 200
)

type VendorService struct {
	Repo   *repo.GormRepo
	Search VendorSearch
	Clock  Clock
}

// Directory lists vendors matching the query, featured first. Free-text
// queries are ranked by the search index when one is configured; everything
// else is filtered and paged by the database.
func (s *VendorService) Directory(ctx context.Context, q transport.DirectoryQuery) (*transport.VendorListResponse, error) {
	from, size := util.Calculate(q.Page, q.Size)
	page := from/size + 1

	if text := strings.TrimSpace(q.Q); s.Search != nil && text != "" {
		ids, err := s.Search.SearchVendorIDs(ctx, text, searchWindow)
		if err == nil {
			return s.rankedPage(ctx, ids, q, page, size)
		}
		logging.FromContext(ctx).Warn("vendor_search_error", zap.Error(err))
	}

	vendors, total, err := s.Repo.ListVendors(ctx, repo.VendorFilter{
		City:     q.City,
		Q:        q.Q,
		Category: q.Category,
		Occasion: q.Occasion,
		Diet:     q.Diet,
	}, from, size)
	if err != nil {
		return nil, err
	}
	if vendors == nil {
		vendors = []models.Vendor{}
	}
	return &transport.VendorListResponse{Total: int(total), Page: page, Size: size, Vendors: vendors}, nil
}

// rankedPage keeps the index order; at most searchWindow ids are filtered here.
func (s *VendorService) rankedPage(ctx context.Context, ids []uuid.UUID, q transport.DirectoryQuery, page, size int) (*transport.VendorListResponse, error) {
	vendors, err := s.byRankedIDs(ctx, ids, q.City)
	if err != nil {
		return nil, err
	}
	filtered := vendors[:0]
	for _, v := range vendors {
		if hasTag(v.Categories, q.Category) && hasTag(v.SupportedOccasions, q.Occasion) && hasTag(v.DietaryTags, q.Diet) {
			filtered = append(filtered, v)
		}
	}
	lo, hi := util.Window(len(filtered), q.Page, q.Size)
	return &transport.VendorListResponse{
		Total:   len(filtered),
		Page:    page,
		Size:    size,
		Vendors: append([]models.Vendor{}, filtered[lo:hi]...),
	}, nil
}

func (s *VendorService) byRankedIDs(ctx context.Context, ids []uuid.UUID, city string) ([]models.Vendor, error) {
	rows, err := s.Repo.VendorsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Vendor, len(rows))
	for _, v := range rows {
		byID[v.ID] = v
	}
	city = strings.TrimSpace(city)
	out := make([]models.Vendor, 0, len(rows))
	for _, id := range ids {
		v, ok := byID[id]
		if !ok {
			continue
		}
		if city != "" && !strings.EqualFold(v.City, city) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func hasTag(tags []string, want string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	if want == "" {
		return true
	}
	return slices.Contains(tags, want)
}

func (s *VendorService) Storefront(ctx context.Context, slug, kind, slot string) (*transport.StorefrontResponse, error) {
	if kind != "" && !models.IsValidOrderType(kind) {
		return nil, fmt.Errorf("%w: kind must be daily or occasion", ErrValidation)
	}
	if slot != "" && !models.IsValidSlot(slot) {
		return nil, fmt.Errorf("%w: slot must be breakfast, lunch or dinner", ErrValidation)
	}

	v, err := s.Repo.VendorBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: vendor %q", ErrNotFound, slug)
		}
		return nil, err
	}
	items, err := s.Repo.ListCatalog(ctx, v.ID, kind, slot)
	if err != nil {
		return nil, err
	}
	media, err := s.Repo.ListMedia(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	return &transport.StorefrontResponse{Vendor: v, Catalog: items, Gallery: media}, nil
}

// OwnVendor loads the vendor profile of a signed-in user.
func (s *VendorService) OwnVendor(ctx context.Context, userID uuid.UUID) (*models.Vendor, error) {
	v, err := s.Repo.VendorByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: no vendor profile for this account", ErrNotFound)
		}
		return nil, err
	}
	return v, nil
}

// SaveProfile creates or updates the caller's vendor profile.
func (s *VendorService) SaveProfile(ctx context.Context, userID uuid.UUID, req transport.VendorProfileRequest) (*models.Vendor, error) {
	v, err := s.Repo.VendorByUserID(ctx, userID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		v = &models.Vendor{UserID: userID}
	case err != nil:
		return nil, err
	}

	if err := applyProfile(v, req); err != nil {
		return nil, err
	}

	taken, err := s.Repo.SlugTaken(ctx, v.Slug, v.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: slug %q is already taken", ErrConflict, v.Slug)
	}

	if err := s.Repo.SaveVendor(ctx, v); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: slug %q is already taken", ErrConflict, v.Slug)
		}
		return nil, err
	}

	if s.Search != nil {
		if err := s.Search.IndexVendor(ctx, v); err != nil {
			logging.FromContext(ctx).Warn("vendor_index_error", zap.String("vendor_id", v.ID.String()), zap.Error(err))
		}
	}
	return v, nil
}

func applyProfile(v *models.Vendor, req transport.VendorProfileRequest) error {
	name := SafeText(req.Name, maxVendorName)
	if name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}

	slug := req.Slug
	if strings.TrimSpace(slug) == "" {
		slug = name
	}
	slug = Slugify(slug)
	if len(slug) > maxVendorSlug {
		slug = strings.Trim(slug[:maxVendorSlug], "-")
	}
	if slug == "" {
		return fmt.Errorf("%w: slug must contain letters or digits", ErrValidation)
	}

	phone, err := NormalizeE164(req.WhatsApp)
	if err != nil {
		return fmt.Errorf("%w: whatsapp_e164 must be an E.164 number like +447700900123", ErrValidation)
	}

	mapURL, err := optionalURL("map_url", req.MapURL, maxMapURL)
	if err != nil {
		return err
	}
	cover, err := optionalURL("cover_image_url", req.CoverImageURL, maxMediaURL)
	if err != nil {
		return err
	}
	menu, err := optionalURL("menu_pdf_url", req.MenuPDFURL, maxMediaURL)
	if err != nil {
		return err
	}

	for field, c := range map[string]*int{
		"breakfast_capacity": req.BreakfastCapacity,
		"lunch_capacity":     req.LunchCapacity,
		"dinner_capacity":    req.DinnerCapacity,
	} {
		if c != nil && *c < 0 {
			return fmt.Errorf("%w: %s must be >= 0", ErrValidation, field)
		}
	}

	cutoffs := map[string]**string{
		"breakfast_cutoff": &req.BreakfastCutoff,
		"lunch_cutoff":     &req.LunchCutoff,
		"dinner_cutoff":    &req.DinnerCutoff,
	}
	for field, c := range cutoffs {
		if *c == nil {
			continue
		}
		t := strings.TrimSpace(**c)
		if t == "" {
			*c = nil
			continue
		}
		if !validHHMM(t) {
			return fmt.Errorf("%w: %s must be HH:MM", ErrValidation, field)
		}
		*c = &t
	}

	occasions := normalizeTags(req.SupportedOccasions)
	for _, o := range occasions {
		if OccasionLabel(o) == o {
			return fmt.Errorf("%w: unknown occasion %q", ErrValidation, o)
		}
	}
	diets := normalizeTags(req.DietaryTags)
	for _, d := range diets {
		if DietaryLabel(d) == d {
			return fmt.Errorf("%w: unknown dietary tag %q", ErrValidation, d)
		}
	}

	v.Name = name
	v.Slug = slug
	v.City = SafeText(req.City, maxVendorCity)
	v.WhatsAppE164 = phone
	v.MapURL = mapURL
	v.CoverImageURL = cover
	v.MenuPDFURL = menu
	v.BreakfastCapacity = req.BreakfastCapacity
	v.LunchCapacity = req.LunchCapacity
	v.DinnerCapacity = req.DinnerCapacity
	v.BreakfastCutoff = req.BreakfastCutoff
	v.LunchCutoff = req.LunchCutoff
	v.DinnerCutoff = req.DinnerCutoff
	v.Categories = normalizeTags(req.Categories)
	v.SupportedOccasions = occasions
	v.DietaryTags = diets
	return nil
}

func (s *VendorService) AddCatalogItem(ctx context.Context, userID uuid.UUID, req transport.CatalogItemRequest) (*models.CatalogItem, error) {
	v, err := s.OwnVendor(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := &models.CatalogItem{VendorID: v.ID, Kind: req.Kind}
	switch req.Kind {
	case models.OrderTypeDaily:
		if !models.IsValidSlot(req.MealSlot) {
			return nil, fmt.Errorf("%w: daily items need meal_slot breakfast, lunch or dinner", ErrValidation)
		}
		slot := req.MealSlot
		item.MealSlot = &slot
	case models.OrderTypeOccasion:
		if req.MealSlot != "" {
			return nil, fmt.Errorf("%w: occasion packages have no meal_slot", ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: kind must be daily or occasion", ErrValidation)
	}

	item.Title = SafeText(req.Title, maxItemTitle)
	if item.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrValidation)
	}
	item.Description = optionalText(req.Description, maxItemDesc)
	item.IsVeg = req.IsVeg

	if req.PriceGBP != nil {
		pence, err := PenceFromGBP("price_gbp", *req.PriceGBP)
		if err != nil {
			return nil, err
		}
		item.PricePence = &pence
	}

	if err := s.Repo.CreateCatalogItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *VendorService) OwnCatalog(ctx context.Context, userID uuid.UUID) ([]models.CatalogItem, error) {
	v, err := s.OwnVendor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListCatalog(ctx, v.ID, "", "")
}

// AddGallery records URLs of media the client already uploaded to object storage.
func (s *VendorService) AddGallery(ctx context.Context, userID uuid.UUID, urls []string) ([]models.VendorMedia, error) {
	v, err := s.OwnVendor(ctx, userID)
	if err != nil {
		return nil, err
	}

	media := make([]models.VendorMedia, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if !validHTTPURL(u) || len(u) > maxMediaURL {
			return nil, fmt.Errorf("%w: %q is not a valid media URL", ErrValidation, u)
		}
		media = append(media, models.VendorMedia{VendorID: v.ID, URL: u})
	}
	if len(media) == 0 {
		return nil, fmt.Errorf("%w: urls required", ErrValidation)
	}
	if len(media) > maxGalleryBatch {
		return nil, fmt.Errorf("%w: at most %d urls per request", ErrValidation, maxGalleryBatch)
	}

	if err := s.Repo.AddMedia(ctx, media); err != nil {
		return nil, err
	}
	return media, nil
}

func (s *VendorService) OwnGallery(ctx context.Context, userID uuid.UUID) ([]models.VendorMedia, error) {
	v, err := s.OwnVendor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListMedia(ctx, v.ID)
}

func (s *VendorService) DashboardOrders(ctx context.Context, userID uuid.UUID, q transport.DashboardOrdersQuery) (*transport.DashboardOrdersResponse, error) {
	if q.OrderType != "" && !models.IsValidOrderType(q.OrderType) {
		return nil, fmt.Errorf("%w: type must be daily or occasion", ErrValidation)
	}
	if q.MealSlot != "" && !models.IsValidSlot(q.MealSlot) {
		return nil, fmt.Errorf("%w: slot must be breakfast, lunch or dinner", ErrValidation)
	}
	date := q.Date
	if date != "" {
		var err error
		if date, err = parseDate("date", date); err != nil {
			return nil, err
		}
	}

	v, err := s.OwnVendor(ctx, userID)
	if err != nil {
		return nil, err
	}

	f := repo.OrderFilter{OrderType: q.OrderType, MealSlot: q.MealSlot, Date: date}
	offset, limit := util.Calculate(q.Page, q.Size)
	orders, err := s.Repo.ListVendorOrders(ctx, v.ID, f, limit, offset)
	if err != nil {
		return nil, err
	}
	counts, err := s.Repo.CountVendorOrdersByStatus(ctx, v.ID, f)
	if err != nil {
		return nil, err
	}
	return &transport.DashboardOrdersResponse{Orders: orders, Counts: counts}, nil
}

// Capacity reports per-slot usage of daily orders for one date (default today).
func (s *VendorService) Capacity(ctx context.Context, userID uuid.UUID, date string) (*transport.CapacityResponse, error) {
	if date == "" {
		date = s.Clock.today()
	} else {
		var err error
		if date, err = parseDate("date", date); err != nil {
			return nil, err
		}
	}

	v, err := s.OwnVendor(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &transport.CapacityResponse{Date: date}
	for _, slot := range models.MealSlots {
		used, err := s.Repo.CountActiveOrders(ctx, v.ID, slot, date)
		if err != nil {
			return nil, err
		}
		sc := transport.SlotCapacity{
			Slot:     slot,
			Capacity: v.Capacity(slot),
			Used:     used,
			Cutoff:   v.Cutoff(slot),
			Closed:   s.Clock.cutoffPassed(date, v.Cutoff(slot)),
		}
		if sc.Capacity != nil {
			rem := int64(*sc.Capacity) - used
			if rem < 0 {
				rem = 0
			}
			sc.Remaining = &rem
			if rem == 0 {
				sc.Closed = true
			}
		}
		out.Slots = append(out.Slots, sc)
	}
	return out, nil
}

func (s *VendorService) NotificationFailures(ctx context.Context, userID uuid.UUID, limit int) ([]models.NotificationFailure, error) {
	v, err := s.OwnVendor(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = 50
	case limit > 100:
		limit = 100
	}
	return s.Repo.ListVendorFailures(ctx, v.ID, limit)
}
