package services

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/logger"
	"github.com/yishak-cs/wardrobe/internal/models"
)

// analyzeConcurrency bounds parallel vision calls in a bulk analysis
const analyzeConcurrency = 3

// ImageUpload is one uploaded photo
type ImageUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// WardrobeService manages the user's clothing catalog and its images
type WardrobeService struct {
	catalog CatalogStore
	blobs   BlobStore
	vision  VisionAnalyzer
	log     *logger.Logger
	now     func() time.Time
}

// NewWardrobeService creates a new wardrobe service
func NewWardrobeService(catalog CatalogStore, blobs BlobStore, vision VisionAnalyzer, log *logger.Logger) *WardrobeService {
	return &WardrobeService{
		catalog: catalog,
		blobs:   blobs,
		vision:  vision,
		log:     log.With("component", "WardrobeService"),
		now:     time.Now,
	}
}

func (s *WardrobeService) imagePath(userID, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "image"
	}
	name = strings.ReplaceAll(name, " ", "_")
	return fmt.Sprintf("wardrobe/%s/%d_%s", userID, s.now().UnixMilli(), name)
}

// AddFromImage stores the photo and creates one catalog item per garment detected in it.
// All created items share the same ImagePath. When nothing is detected the photo is
// removed again and an empty list is returned.
func (s *WardrobeService) AddFromImage(ctx context.Context, userID string, upload ImageUpload) ([]models.ClothingItem, error) {
	if len(upload.Data) == 0 {
		return nil, apperr.Invalid("image is empty")
	}

	imagePath := s.imagePath(userID, upload.FileName)
	if err := s.blobs.Upload(ctx, imagePath, upload.ContentType, bytes.NewReader(upload.Data)); err != nil {
		return nil, apperr.Persistence("upload image", err)
	}

	detected, err := s.vision.AnalyzeImage(ctx, upload.Data, upload.ContentType)
	if err != nil {
		s.removeBlob(ctx, imagePath)
		return nil, err
	}
	if len(detected) == 0 {
		s.log.Info("No clothing detected in image", "user_id", userID, "file", upload.FileName)
		s.removeBlob(ctx, imagePath)
		return []models.ClothingItem{}, nil
	}

	imageURL := s.blobs.PublicURL(imagePath)
	created := make([]models.ClothingItem, 0, len(detected))
	for _, d := range detected {
		item, err := s.catalog.CreateItem(ctx, models.ClothingItem{
			OwnerID:     userID,
			Category:    d.Category,
			Colors:      d.Colors,
			Season:      d.Season,
			Style:       d.Style,
			Description: d.Description,
			Confidence:  d.Confidence,
			ImageURL:    imageURL,
			ImagePath:   imagePath,
		})
		if err != nil {
			return created, err
		}
		created = append(created, item)
	}

	s.log.Info("Added items from image", "user_id", userID, "items", len(created))
	return created, nil
}

func (s *WardrobeService) removeBlob(ctx context.Context, imagePath string) {
	if err := s.blobs.Delete(ctx, imagePath); err != nil {
		s.log.Warn("Failed to delete image", "path", imagePath, "error", err)
	}
}

// AnalyzeImages runs the vision model over several photos without saving anything. A
// failed photo is reported in its own result and does not stop the others.
func (s *WardrobeService) AnalyzeImages(ctx context.Context, uploads []ImageUpload) []models.ImageAnalysis {
	results := make([]models.ImageAnalysis, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(analyzeConcurrency)
	for i, upload := range uploads {
		i, upload := i, upload
		g.Go(func() error {
			result := models.ImageAnalysis{FileName: upload.FileName, Items: []models.DetectedItem{}}
			items, err := s.vision.AnalyzeImage(gctx, upload.Data, upload.ContentType)
			if err != nil {
				s.log.Warn("Image analysis failed", "file", upload.FileName, "error", err)
				result.Error = err.Error()
			} else {
				result.Items = append(result.Items, items...)
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// List returns the user's items newest first
func (s *WardrobeService) List(ctx context.Context, userID string) ([]models.ClothingItem, error) {
	return s.catalog.ListItems(ctx, userID)
}

func (s *WardrobeService) ownedItem(ctx context.Context, userID, itemID string) (models.ClothingItem, error) {
	item, err := s.catalog.GetItem(ctx, itemID)
	if err != nil {
		return models.ClothingItem{}, err
	}
	if item.OwnerID != userID {
		return models.ClothingItem{}, apperr.Forbidden("item %s belongs to another user", itemID)
	}
	return item, nil
}

// Update applies the user's corrections to an item
func (s *WardrobeService) Update(ctx context.Context, userID, itemID string, update models.ItemUpdate) (models.ClothingItem, error) {
	if update.Category != nil && models.ParseCategory(string(*update.Category)) != *update.Category {
		return models.ClothingItem{}, apperr.Invalid("unknown category %q", *update.Category)
	}

	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return models.ClothingItem{}, err
	}

	if update.Category != nil {
		item.Category = *update.Category
	}
	if update.Colors != nil {
		item.Colors = update.Colors
	}
	if update.Season != nil {
		item.Season = update.Season
	}
	if update.Style != nil {
		item.Style = update.Style
	}
	if update.Description != nil {
		item.Description = *update.Description
	}

	if err := s.catalog.UpdateItem(ctx, item); err != nil {
		return models.ClothingItem{}, err
	}
	return item, nil
}

// ToggleFavorite flips the item's favorite flag
func (s *WardrobeService) ToggleFavorite(ctx context.Context, userID, itemID string) (models.ClothingItem, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return models.ClothingItem{}, err
	}
	item.Favorite = !item.Favorite
	if err := s.catalog.UpdateItem(ctx, item); err != nil {
		return models.ClothingItem{}, err
	}
	return item, nil
}

// ToggleLaundry moves the item into or out of the laundry. Items in the laundry are not
// offered to outfit generation.
func (s *WardrobeService) ToggleLaundry(ctx context.Context, userID, itemID string) (models.ClothingItem, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return models.ClothingItem{}, err
	}
	item.InLaundry = !item.InLaundry
	if item.InLaundry {
		now := s.now()
		item.LaundryDate = &now
	} else {
		item.LaundryDate = nil
	}
	if err := s.catalog.UpdateItem(ctx, item); err != nil {
		return models.ClothingItem{}, err
	}
	return item, nil
}

// Delete removes the item, then removes its image once no other item references it
func (s *WardrobeService) Delete(ctx context.Context, userID, itemID string) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := s.catalog.DeleteItem(ctx, itemID); err != nil {
		return err
	}

	if item.ImagePath == "" {
		return nil
	}
	remaining, err := s.catalog.CountItemsByImagePath(ctx, item.ImagePath)
	if err != nil {
		s.log.Warn("Keeping image, could not count references", "path", item.ImagePath, "error", err)
		return nil
	}
	if remaining > 0 {
		s.log.Debug("Image still referenced", "path", item.ImagePath, "items", remaining)
		return nil
	}
	s.removeBlob(ctx, item.ImagePath)
	return nil
}
