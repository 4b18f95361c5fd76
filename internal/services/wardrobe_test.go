package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/logger"
	"github.com/yishak-cs/wardrobe/internal/models"
)

func newWardrobeFixture(vision *fakeVision, items ...models.ClothingItem) (*WardrobeService, *fakeCatalog, *fakeBlobs) {
	catalog := &fakeCatalog{items: items}
	blobs := newFakeBlobs()
	svc := NewWardrobeService(catalog, blobs, vision, logger.Nop())
	svc.now = fixedClock(testNow)
	return svc, catalog, blobs
}

func TestAddFromImageMultipleItems(t *testing.T) {
	vision := &fakeVision{byImage: map[string][]models.DetectedItem{
		"outfit-photo": {
			{Category: models.CategoryTop, Colors: []string{"white"}, Description: "white tee", Confidence: 0.9},
			{Category: models.CategoryBottom, Colors: []string{"blue"}, Description: "jeans", Confidence: 0.8},
		},
	}}
	svc, catalog, blobs := newWardrobeFixture(vision)

	items, err := svc.AddFromImage(context.Background(), "u1", ImageUpload{
		FileName: "my photo.jpg", ContentType: "image/jpeg", Data: []byte("outfit-photo"),
	})
	if err != nil {
		t.Fatalf("AddFromImage: %v", err)
	}
	if len(items) != 2 || len(catalog.items) != 2 {
		t.Fatalf("items=%+v", items)
	}
	if items[0].ImagePath != items[1].ImagePath || items[0].ImagePath == "" {
		t.Fatalf("items should share one image: %q %q", items[0].ImagePath, items[1].ImagePath)
	}
	if !strings.HasPrefix(items[0].ImagePath, "wardrobe/u1/") || !strings.HasSuffix(items[0].ImagePath, "_my_photo.jpg") {
		t.Fatalf("path=%q", items[0].ImagePath)
	}
	if items[0].ImageURL != blobs.PublicURL(items[0].ImagePath) || items[0].OwnerID != "u1" {
		t.Fatalf("item=%+v", items[0])
	}
	if len(blobs.objects) != 1 {
		t.Fatalf("objects=%d", len(blobs.objects))
	}
}

func TestAddFromImageNothingDetected(t *testing.T) {
	svc, catalog, blobs := newWardrobeFixture(&fakeVision{byImage: map[string][]models.DetectedItem{}})

	items, err := svc.AddFromImage(context.Background(), "u1", ImageUpload{FileName: "cat.jpg", Data: []byte("a cat")})
	if err != nil {
		t.Fatalf("no detections should not be an error: %v", err)
	}
	if len(items) != 0 || len(catalog.items) != 0 {
		t.Fatalf("items=%+v", items)
	}
	if len(blobs.objects) != 0 || len(blobs.deleted) != 1 {
		t.Fatalf("image should be removed: objects=%v deleted=%v", blobs.objects, blobs.deleted)
	}
}

func TestAddFromImageVisionFailure(t *testing.T) {
	svc, catalog, blobs := newWardrobeFixture(&fakeVision{err: apperr.External("analyze image", errors.New("timeout"))})

	_, err := svc.AddFromImage(context.Background(), "u1", ImageUpload{FileName: "x.jpg", Data: []byte("x")})
	if !apperr.IsExternal(err) {
		t.Fatalf("expected external error, got %v", err)
	}
	if len(catalog.items) != 0 || len(blobs.objects) != 0 {
		t.Fatal("partial state left after vision failure")
	}
}

func TestAddFromImageEmpty(t *testing.T) {
	svc, _, _ := newWardrobeFixture(&fakeVision{})
	if _, err := svc.AddFromImage(context.Background(), "u1", ImageUpload{FileName: "x.jpg"}); !apperr.IsInvalid(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestAnalyzeImagesCollectsPerFileErrors(t *testing.T) {
	vision := &fakeVision{byImage: map[string][]models.DetectedItem{
		"one": {{Category: models.CategoryTop, Description: "tee"}},
		"two": {{Category: models.CategoryShoes, Description: "boots"}, {Category: models.CategoryAccessory, Description: "belt"}},
	}}
	svc, catalog, _ := newWardrobeFixture(vision)

	uploads := []ImageUpload{
		{FileName: "1.jpg", Data: []byte("one")},
		{FileName: "bad.jpg", Data: []byte("broken")},
		{FileName: "2.jpg", Data: []byte("two")},
		{FileName: "empty.jpg", Data: []byte("nothing")},
	}
	results := svc.AnalyzeImages(context.Background(), uploads)

	if len(results) != 4 {
		t.Fatalf("results=%d", len(results))
	}
	for i, r := range results {
		if r.FileName != uploads[i].FileName {
			t.Fatalf("result %d out of order: %s", i, r.FileName)
		}
	}
	if len(results[0].Items) != 1 || results[0].Error != "" {
		t.Fatalf("result 0=%+v", results[0])
	}
	if results[1].Error == "" || len(results[1].Items) != 0 {
		t.Fatalf("result 1=%+v", results[1])
	}
	if len(results[2].Items) != 2 {
		t.Fatalf("result 2=%+v", results[2])
	}
	if results[3].Error != "" || len(results[3].Items) != 0 {
		t.Fatalf("result 3=%+v", results[3])
	}
	if vision.calls != 4 {
		t.Fatalf("calls=%d", vision.calls)
	}
	if len(catalog.items) != 0 {
		t.Fatal("analysis saved items")
	}
}

func TestDeleteKeepsSharedImage(t *testing.T) {
	items := []models.ClothingItem{
		{ID: "a", OwnerID: "u1", ImagePath: "wardrobe/u1/1_photo.jpg"},
		{ID: "b", OwnerID: "u1", ImagePath: "wardrobe/u1/1_photo.jpg"},
	}
	svc, catalog, blobs := newWardrobeFixture(&fakeVision{}, items...)
	ctx := context.Background()

	if err := svc.Delete(ctx, "u1", "a"); err != nil {
		t.Fatal(err)
	}
	if len(blobs.deleted) != 0 {
		t.Fatalf("shared image deleted: %v", blobs.deleted)
	}

	if err := svc.Delete(ctx, "u1", "b"); err != nil {
		t.Fatal(err)
	}
	if len(blobs.deleted) != 1 || blobs.deleted[0] != "wardrobe/u1/1_photo.jpg" {
		t.Fatalf("deleted=%v", blobs.deleted)
	}
	if len(catalog.items) != 0 {
		t.Fatalf("items=%v", catalog.items)
	}
}

func TestDeleteChecksOwnership(t *testing.T) {
	svc, catalog, _ := newWardrobeFixture(&fakeVision{}, models.ClothingItem{ID: "a", OwnerID: "u1"})
	if err := svc.Delete(context.Background(), "u2", "a"); apperr.CodeOf(err) != apperr.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(catalog.items) != 1 {
		t.Fatal("item deleted by another user")
	}
	if err := svc.Delete(context.Background(), "u1", "missing"); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestToggleLaundry(t *testing.T) {
	svc, _, _ := newWardrobeFixture(&fakeVision{}, models.ClothingItem{ID: "a", OwnerID: "u1"})
	ctx := context.Background()

	item, err := svc.ToggleLaundry(ctx, "u1", "a")
	if err != nil {
		t.Fatal(err)
	}
	if !item.InLaundry || item.LaundryDate == nil || !item.LaundryDate.Equal(testNow) {
		t.Fatalf("item=%+v", item)
	}

	item, err = svc.ToggleLaundry(ctx, "u1", "a")
	if err != nil {
		t.Fatal(err)
	}
	if item.InLaundry || item.LaundryDate != nil {
		t.Fatalf("item=%+v", item)
	}
}

func TestToggleFavoriteItem(t *testing.T) {
	svc, catalog, _ := newWardrobeFixture(&fakeVision{}, models.ClothingItem{ID: "a", OwnerID: "u1"})
	item, err := svc.ToggleFavorite(context.Background(), "u1", "a")
	if err != nil || !item.Favorite || !catalog.items[0].Favorite {
		t.Fatalf("item=%+v err=%v", item, err)
	}
}

func TestUpdateItem(t *testing.T) {
	svc, _, _ := newWardrobeFixture(&fakeVision{}, models.ClothingItem{
		ID: "a", OwnerID: "u1", Category: models.CategoryOther, Colors: []string{"red"}, Description: "thing",
	})
	ctx := context.Background()

	category := models.CategoryOuterwear
	description := "red rain jacket"
	item, err := svc.Update(ctx, "u1", "a", models.ItemUpdate{Category: &category, Description: &description})
	if err != nil {
		t.Fatal(err)
	}
	if item.Category != models.CategoryOuterwear || item.Description != description || item.Colors[0] != "red" {
		t.Fatalf("item=%+v", item)
	}

	bogus := models.Category("cape")
	if _, err := svc.Update(ctx, "u1", "a", models.ItemUpdate{Category: &bogus}); !apperr.IsInvalid(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
