package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/models"
)

var errStoreDown = errors.New("connection refused")

type fakeCatalog struct {
	mu      sync.Mutex
	items   []models.ClothingItem
	nextID  int
	listErr error
}

func (f *fakeCatalog) CreateItem(_ context.Context, item models.ClothingItem) (models.ClothingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	item.ID = fmt.Sprintf("item-%d", f.nextID)
	f.items = append(f.items, item)
	return item, nil
}

func (f *fakeCatalog) GetItem(_ context.Context, itemID string) (models.ClothingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ID == itemID {
			return item, nil
		}
	}
	return models.ClothingItem{}, apperr.NotFound("item %s not found", itemID)
}

func (f *fakeCatalog) ListItems(_ context.Context, ownerID string) ([]models.ClothingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, apperr.Persistence("list items", f.listErr)
	}
	var out []models.ClothingItem
	for _, item := range f.items {
		if item.OwnerID == ownerID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeCatalog) UpdateItem(_ context.Context, item models.ClothingItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == item.ID {
			f.items[i] = item
			return nil
		}
	}
	return apperr.NotFound("item %s not found", item.ID)
}

func (f *fakeCatalog) DeleteItem(_ context.Context, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == itemID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("item %s not found", itemID)
}

func (f *fakeCatalog) CountItemsByImagePath(_ context.Context, imagePath string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, item := range f.items {
		if item.ImagePath == imagePath {
			n++
		}
	}
	return n, nil
}

type fakeOutfits struct {
	mu        sync.Mutex
	outfits   []models.OutfitRecord
	nextID    int
	createErr error
}

func (f *fakeOutfits) CreateOutfit(_ context.Context, outfit models.OutfitRecord) (models.OutfitRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return models.OutfitRecord{}, apperr.Persistence("create outfit", f.createErr)
	}
	f.nextID++
	outfit.ID = fmt.Sprintf("outfit-%d", f.nextID)
	f.outfits = append(f.outfits, outfit)
	return outfit, nil
}

func (f *fakeOutfits) GetOutfit(_ context.Context, outfitID string) (models.OutfitRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.outfits {
		if o.ID == outfitID {
			return o, nil
		}
	}
	return models.OutfitRecord{}, apperr.NotFound("outfit %s not found", outfitID)
}

// ListOutfits returns newest first, which is insertion order reversed
func (f *fakeOutfits) ListOutfits(_ context.Context, ownerID string, limit int) ([]models.OutfitRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.OutfitRecord
	for i := len(f.outfits) - 1; i >= 0; i-- {
		if f.outfits[i].OwnerID == ownerID {
			out = append(out, f.outfits[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeOutfits) UpdateOutfit(_ context.Context, outfit models.OutfitRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.outfits {
		if f.outfits[i].ID == outfit.ID {
			f.outfits[i] = outfit
			return nil
		}
	}
	return apperr.NotFound("outfit %s not found", outfit.ID)
}

func (f *fakeOutfits) DeleteOutfit(_ context.Context, outfitID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.outfits {
		if f.outfits[i].ID == outfitID {
			f.outfits = append(f.outfits[:i], f.outfits[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("outfit %s not found", outfitID)
}

type fakePreferences struct {
	mu      sync.Mutex
	models  map[string]models.PreferenceModel
	getErr  error
	saveErr error
	reads   int
	writes  int
}

func newFakePreferences() *fakePreferences {
	return &fakePreferences{models: map[string]models.PreferenceModel{}}
}

func (f *fakePreferences) GetPreferences(_ context.Context, userID string) (models.PreferenceModel, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.getErr != nil {
		return models.PreferenceModel{}, false, apperr.Persistence("get preferences", f.getErr)
	}
	model, ok := f.models[userID]
	if !ok {
		return models.NewPreferenceModel(userID), false, nil
	}
	return cloneModel(model), true, nil
}

func (f *fakePreferences) SavePreferences(_ context.Context, model models.PreferenceModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.saveErr != nil {
		return apperr.Persistence("save preferences", f.saveErr)
	}
	f.models[model.UserID] = cloneModel(model)
	return nil
}

// cloneModel mimics a document store round trip so callers cannot share maps
func cloneModel(m models.PreferenceModel) models.PreferenceModel {
	out := m
	out.ItemPreferences = make(map[string]models.ItemPreference, len(m.ItemPreferences))
	for k, v := range m.ItemPreferences {
		out.ItemPreferences[k] = v
	}
	clonePairs := func(in map[string]models.PairingStat) map[string]models.PairingStat {
		c := make(map[string]models.PairingStat, len(in))
		for k, v := range in {
			c[k] = v
		}
		return c
	}
	out.ColorCombinations = clonePairs(m.ColorCombinations)
	out.StylePairings = clonePairs(m.StylePairings)
	out.CategoryPairings = clonePairs(m.CategoryPairings)
	return out
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]models.UserProfile
	getErr   error
	saveErr  error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: map[string]models.UserProfile{}}
}

func (f *fakeProfiles) GetProfile(_ context.Context, userID string) (models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return models.UserProfile{}, apperr.Persistence("get profile", f.getErr)
	}
	profile, ok := f.profiles[userID]
	if !ok {
		return models.NewUserProfile(userID), nil
	}
	return profile, nil
}

func (f *fakeProfiles) SaveProfile(_ context.Context, profile models.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return apperr.Persistence("save profile", f.saveErr)
	}
	f.profiles[profile.UserID] = profile
	return nil
}

type fakeUsage struct {
	mu      sync.Mutex
	counts  map[string]int
	getErr  error
	incrErr error
}

func newFakeUsage() *fakeUsage {
	return &fakeUsage{counts: map[string]int{}}
}

func usageKey(userID, day string, action models.ActionType) string {
	return userID + "|" + day + "|" + string(action)
}

func (f *fakeUsage) GetUsage(_ context.Context, userID, day string, action models.ActionType) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return 0, apperr.Persistence("get usage", f.getErr)
	}
	return f.counts[usageKey(userID, day, action)], nil
}

func (f *fakeUsage) GetDailyUsage(_ context.Context, userID, day string) (map[models.ActionType]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, apperr.Persistence("get daily usage", f.getErr)
	}
	out := map[models.ActionType]int{}
	for action := range DailyLimits {
		if n, ok := f.counts[usageKey(userID, day, action)]; ok {
			out[action] = n
		}
	}
	return out, nil
}

func (f *fakeUsage) IncrementUsage(_ context.Context, userID, day string, action models.ActionType) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrErr != nil {
		return 0, apperr.Persistence("increment usage", f.incrErr)
	}
	key := usageKey(userID, day, action)
	f.counts[key]++
	return f.counts[key], nil
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (f *fakeBlobs) Upload(_ context.Context, path string, _ string, data io.Reader) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[path] = b
	return nil
}

func (f *fakeBlobs) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, path)
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeBlobs) PublicURL(path string) string {
	return "https://blobs.test/" + path
}

type fakeVision struct {
	byImage map[string][]models.DetectedItem
	err     error
	calls   int
	mu      sync.Mutex
}

func (f *fakeVision) AnalyzeImage(_ context.Context, image []byte, _ string) ([]models.DetectedItem, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	key := string(image)
	if key == "broken" {
		return nil, apperr.External("analyze image", errors.New("bad payload"))
	}
	return f.byImage[key], nil
}

type fakeGenerator struct {
	suggestion  models.OutfitSuggestion
	err         error
	calls       int
	description string
	constraints models.OutfitConstraints
}

func (f *fakeGenerator) GenerateOutfit(_ context.Context, catalogDescription string, constraints models.OutfitConstraints) (models.OutfitSuggestion, error) {
	f.calls++
	f.description = catalogDescription
	f.constraints = constraints
	if f.err != nil {
		return models.OutfitSuggestion{}, f.err
	}
	return f.suggestion, nil
}

type fakeAdvisor struct {
	recs  []models.ShoppingRecommendation
	err   error
	calls int
	prefs *models.PreferenceHints
	limit int
}

func (f *fakeAdvisor) RecommendShopping(_ context.Context, _ models.WardrobeAnalysis, prefs *models.PreferenceHints, limit int) ([]models.ShoppingRecommendation, error) {
	f.calls++
	f.prefs = prefs
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.recs, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
