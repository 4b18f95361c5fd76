package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/logger"
	"github.com/yishak-cs/wardrobe/internal/models"
)

type outfitFixture struct {
	catalog   *fakeCatalog
	outfits   *fakeOutfits
	prefs     *fakePreferences
	profiles  *fakeProfiles
	usage     *fakeUsage
	generator *fakeGenerator
	limiter   *RateLimiter
	svc       *OutfitService
}

var testNow = time.Date(2025, 10, 3, 18, 30, 0, 0, time.Local)

func newOutfitFixture(items ...models.ClothingItem) *outfitFixture {
	f := &outfitFixture{
		catalog:  &fakeCatalog{items: items},
		outfits:  &fakeOutfits{},
		prefs:    newFakePreferences(),
		profiles: newFakeProfiles(),
		usage:    newFakeUsage(),
		generator: &fakeGenerator{suggestion: models.OutfitSuggestion{
			Outfit:    models.OutfitSlots{Top: "blue shirt", Bottom: "jeans"},
			Reasoning: "classic",
		}},
	}
	log := logger.Nop()
	agg := NewPreferenceAggregator(f.prefs, log)
	agg.now = fixedClock(testNow)
	f.limiter = NewRateLimiter(f.usage, log)
	f.limiter.now = fixedClock(testNow)
	f.svc = NewOutfitService(f.catalog, f.outfits, agg, NewProfileService(f.profiles, log), f.limiter, f.generator, log)
	f.svc.now = fixedClock(testNow)
	return f
}

func basicCatalog() []models.ClothingItem {
	return []models.ClothingItem{
		{ID: "shirt", OwnerID: "u1", Category: models.CategoryTop, Colors: []string{"Blue"}, Description: "blue shirt"},
		{ID: "jeans", OwnerID: "u1", Category: models.CategoryBottom, Colors: []string{"Indigo"}, Description: "slim jeans"},
		{ID: "dirty", OwnerID: "u1", Category: models.CategoryTop, Colors: []string{"Blue"}, Description: "blue shirt", InLaundry: true},
	}
}

func (f *outfitFixture) usageToday(action models.ActionType) int {
	n, _ := f.usage.GetUsage(context.Background(), "u1", DayKey(testNow), action)
	return n
}

func TestGenerateHappyPath(t *testing.T) {
	f := newOutfitFixture(basicCatalog()...)

	record, err := f.svc.Generate(context.Background(), "u1", models.GenerateOutfitRequest{
		Occasion: "office",
		Weather:  &models.Weather{Temp: 64, Condition: "cloudy"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if record.ID == "" || record.OwnerID != "u1" || !record.CreatedAt.Equal(testNow) {
		t.Fatalf("record=%+v", record)
	}
	if len(record.SelectedItems) != 2 || record.SelectedItems[0].ID != "shirt" || record.SelectedItems[1].ID != "jeans" {
		t.Fatalf("selected=%+v", record.SelectedItems)
	}
	if len(record.SourceItemIDs) != 2 {
		t.Fatalf("laundry item offered to the generator: %v", record.SourceItemIDs)
	}
	if strings.Contains(f.generator.description, "dirty") || strings.Count(f.generator.description, "\n") != 1 {
		t.Fatalf("catalog description=%q", f.generator.description)
	}
	if !strings.Contains(f.generator.description, "top: blue shirt (Blue)") {
		t.Fatalf("catalog description=%q", f.generator.description)
	}
	if f.generator.constraints.Occasion != "office" || f.generator.constraints.UserPreferences != nil {
		t.Fatalf("constraints=%+v", f.generator.constraints)
	}
	if got := f.usageToday(models.ActionOutfitGeneration); got != 1 {
		t.Fatalf("usage=%d", got)
	}
	if len(f.outfits.outfits) != 1 {
		t.Fatalf("stored=%d", len(f.outfits.outfits))
	}
}

func TestGenerateChecksQuotaBeforeCallingModel(t *testing.T) {
	f := newOutfitFixture(basicCatalog()...)
	for i := 0; i < 10; i++ {
		if _, err := f.limiter.IncrementUsage(context.Background(), "u1", models.ActionOutfitGeneration); err != nil {
			t.Fatal(err)
		}
	}

	_, err := f.svc.Generate(context.Background(), "u1", models.GenerateOutfitRequest{})
	if !apperr.IsQuotaExceeded(err) {
		t.Fatalf("expected quota exceeded, got %v", err)
	}
	if f.generator.calls != 0 {
		t.Fatal("model called after quota was exhausted")
	}
	if got := f.usageToday(models.ActionOutfitGeneration); got != 10 {
		t.Fatalf("usage=%d", got)
	}
}

func TestGenerateFailureDoesNotChargeQuota(t *testing.T) {
	t.Run("model error", func(t *testing.T) {
		f := newOutfitFixture(basicCatalog()...)
		f.generator.err = apperr.External("generate outfit", errors.New("bad json"))

		_, err := f.svc.Generate(context.Background(), "u1", models.GenerateOutfitRequest{})
		if !apperr.IsExternal(err) {
			t.Fatalf("expected external error, got %v", err)
		}
		if got := f.usageToday(models.ActionOutfitGeneration); got != 0 {
			t.Fatalf("usage=%d", got)
		}
		if len(f.outfits.outfits) != 0 {
			t.Fatal("outfit stored after failed generation")
		}
	})

	t.Run("persistence error", func(t *testing.T) {
		f := newOutfitFixture(basicCatalog()...)
		f.outfits.createErr = errStoreDown

		_, err := f.svc.Generate(context.Background(), "u1", models.GenerateOutfitRequest{})
		if !apperr.IsPersistence(err) {
			t.Fatalf("expected persistence error, got %v", err)
		}
		if got := f.usageToday(models.ActionOutfitGeneration); got != 0 {
			t.Fatalf("usage=%d", got)
		}
	})
}

func TestGenerateFailsOpenWhenUsageStoreIsDown(t *testing.T) {
	f := newOutfitFixture(basicCatalog()...)
	f.usage.getErr = errStoreDown

	if _, err := f.svc.Generate(context.Background(), "u1", models.GenerateOutfitRequest{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if f.generator.calls != 1 {
		t.Fatalf("calls=%d", f.generator.calls)
	}
}

func TestGenerateNoCleanItems(t *testing.T) {
	f := newOutfitFixture(models.ClothingItem{ID: "dirty", OwnerID: "u1", Category: models.CategoryTop, InLaundry: true})
	_, err := f.svc.Generate(context.Background(), "u1", models.GenerateOutfitRequest{})
	if !apperr.IsInvalid(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if f.generator.calls != 0 {
		t.Fatal("model called without items")
	}
}

func TestGenerateWithAnchor(t *testing.T) {
	catalog := append(basicCatalog(), models.ClothingItem{
		ID: "tee", OwnerID: "u1", Category: models.CategoryTop, Colors: []string{"Green"}, Description: "green tee",
	})

	t.Run("anchor selected", func(t *testing.T) {
		f := newOutfitFixture(catalog...)
		record, err := f.svc.Generate(context.Background(), "u1", models.GenerateOutfitRequest{AnchorItemID: "tee"})
		if err != nil {
			t.Fatal(err)
		}
		if record.SelectedItems[0].ID != "tee" {
			t.Fatalf("selected=%+v", record.SelectedItems)
		}
		if f.generator.constraints.AnchorItem == nil || f.generator.constraints.AnchorItem.ID != "tee" {
			t.Fatalf("constraints=%+v", f.generator.constraints)
		}
	})

	t.Run("unknown anchor", func(t *testing.T) {
		f := newOutfitFixture(catalog...)
		_, err := f.svc.Generate(context.Background(), "u1", models.GenerateOutfitRequest{AnchorItemID: "ghost"})
		if !apperr.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("anchor in laundry", func(t *testing.T) {
		f := newOutfitFixture(catalog...)
		_, err := f.svc.Generate(context.Background(), "u1", models.GenerateOutfitRequest{AnchorItemID: "dirty"})
		if !apperr.IsInvalid(err) {
			t.Fatalf("expected invalid argument, got %v", err)
		}
	})
}

func TestGeneratePassesPreferencesAndRecentOutfits(t *testing.T) {
	f := newOutfitFixture(basicCatalog()...)
	ctx := context.Background()

	first, err := f.svc.Generate(ctx, "u1", models.GenerateOutfitRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Rate(ctx, "u1", first.ID, 5); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Generate(ctx, "u1", models.GenerateOutfitRequest{}); err != nil {
		t.Fatal(err)
	}
	c := f.generator.constraints
	if c.UserPreferences == nil || len(c.UserPreferences.TopItems) != 2 {
		t.Fatalf("preferences=%+v", c.UserPreferences)
	}
	if len(c.RecentOutfits) != 1 || c.RecentOutfits[0].Top != "blue shirt" {
		t.Fatalf("recent=%+v", c.RecentOutfits)
	}
}

func TestGenerateContinuesWhenPreferencesFail(t *testing.T) {
	f := newOutfitFixture(basicCatalog()...)
	f.prefs.getErr = errStoreDown

	if _, err := f.svc.Generate(context.Background(), "u1", models.GenerateOutfitRequest{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if f.generator.constraints.UserPreferences != nil {
		t.Fatal("preferences passed despite failed lookup")
	}
}

func TestRateOutfit(t *testing.T) {
	f := newOutfitFixture(basicCatalog()...)
	ctx := context.Background()
	record, err := f.svc.Generate(ctx, "u1", models.GenerateOutfitRequest{})
	if err != nil {
		t.Fatal(err)
	}

	rated, err := f.svc.Rate(ctx, "u1", record.ID, 4)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if rated.Rating == nil || *rated.Rating != 4 || rated.RatedAt == nil || rated.WornAt == nil {
		t.Fatalf("rated=%+v", rated)
	}

	stored, _ := f.outfits.GetOutfit(ctx, record.ID)
	if stored.Rating == nil || *stored.Rating != 4 {
		t.Fatalf("stored=%+v", stored)
	}
	model := f.prefs.models["u1"]
	if model.ItemPreferences["shirt"].TimesWorn != 1 || model.ColorCombinations["Blue-Indigo"].Count != 1 {
		t.Fatalf("model=%+v", model)
	}

	// re-rating counts as another rating event
	if _, err := f.svc.Rate(ctx, "u1", record.ID, 2); err != nil {
		t.Fatal(err)
	}
	if got := f.prefs.models["u1"].ItemPreferences["shirt"]; got.TimesWorn != 2 || got.AvgRating != 3 {
		t.Fatalf("pref=%+v", got)
	}
}

func TestRateOutfitErrors(t *testing.T) {
	f := newOutfitFixture(basicCatalog()...)
	ctx := context.Background()
	record, err := f.svc.Generate(ctx, "u1", models.GenerateOutfitRequest{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Rate(ctx, "u1", record.ID, 9); !apperr.IsInvalid(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := f.svc.Rate(ctx, "u1", "missing", 3); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.svc.Rate(ctx, "intruder", record.ID, 3); apperr.CodeOf(err) != apperr.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	f.prefs.saveErr = errStoreDown
	if _, err := f.svc.Rate(ctx, "u1", record.ID, 3); !apperr.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestOutfitHistoryOperations(t *testing.T) {
	f := newOutfitFixture(basicCatalog()...)
	ctx := context.Background()

	var created []models.OutfitRecord
	for i := 0; i < 3; i++ {
		r, err := f.svc.Generate(ctx, "u1", models.GenerateOutfitRequest{})
		if err != nil {
			t.Fatal(err)
		}
		created = append(created, r)
	}

	history, err := f.svc.History(ctx, "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 || history[0].ID != created[2].ID {
		t.Fatalf("history=%v", history)
	}

	fav, err := f.svc.ToggleFavorite(ctx, "u1", created[0].ID)
	if err != nil || !fav.Favorite {
		t.Fatalf("fav=%+v err=%v", fav, err)
	}
	fav, _ = f.svc.ToggleFavorite(ctx, "u1", created[0].ID)
	if fav.Favorite {
		t.Fatal("favorite did not toggle back")
	}

	img, err := f.svc.SetImage(ctx, "u1", created[1].ID, "https://img.test/1.png")
	if err != nil || img.ImageURL != "https://img.test/1.png" {
		t.Fatalf("img=%+v err=%v", img, err)
	}
	if _, err := f.svc.SetImage(ctx, "u1", created[1].ID, " "); !apperr.IsInvalid(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}

	if err := f.svc.Delete(ctx, "intruder", created[2].ID); apperr.CodeOf(err) != apperr.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := f.svc.Delete(ctx, "u1", created[2].ID); err != nil {
		t.Fatal(err)
	}
	history, _ = f.svc.History(ctx, "u1", 0)
	if len(history) != 2 {
		t.Fatalf("history=%d", len(history))
	}
}

func TestGeneratePassesProfileToGenerator(t *testing.T) {
	f := newOutfitFixture(basicCatalog()...)
	f.profiles.profiles["u1"] = models.UserProfile{
		UserID:           "u1",
		Gender:           "male",
		StylePreferences: []string{"smart casual"},
		FavoriteColors:   []string{"navy"},
	}

	if _, err := f.svc.Generate(context.Background(), "u1", models.GenerateOutfitRequest{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	p := f.generator.constraints.Profile
	if p == nil || p.Gender != "male" || len(p.StylePreferences) != 1 || p.FavoriteColors[0] != "navy" {
		t.Fatalf("profile=%+v", p)
	}
}

func TestGenerateWithoutProfile(t *testing.T) {
	t.Run("empty profile", func(t *testing.T) {
		f := newOutfitFixture(basicCatalog()...)
		if _, err := f.svc.Generate(context.Background(), "u1", models.GenerateOutfitRequest{}); err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if f.generator.constraints.Profile != nil {
			t.Fatalf("profile=%+v", f.generator.constraints.Profile)
		}
	})

	t.Run("profile store down", func(t *testing.T) {
		f := newOutfitFixture(basicCatalog()...)
		f.profiles.getErr = errStoreDown
		if _, err := f.svc.Generate(context.Background(), "u1", models.GenerateOutfitRequest{}); err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if f.generator.calls != 1 || f.generator.constraints.Profile != nil {
			t.Fatalf("calls=%d profile=%+v", f.generator.calls, f.generator.constraints.Profile)
		}
	})
}
