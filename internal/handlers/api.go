package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/logger"
	"github.com/yishak-cs/wardrobe/internal/models"
	"github.com/yishak-cs/wardrobe/internal/services"
)

const (
	maxImageBytes    = 10 << 20
	maxAnalyzeImages = 10
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// StoreStatusReporter reports node counts for the health endpoint
type StoreStatusReporter interface {
	GetStoreStatus(ctx context.Context) (map[string]int, error)
}

// APIHandler handles all API requests
type APIHandler struct {
	wardrobe        *services.WardrobeService
	outfits         *services.OutfitService
	preferences     *services.PreferenceAggregator
	profiles        *services.ProfileService
	limiter         *services.RateLimiter
	recommendations *services.RecommendationService
	health          HealthChecker
	status          StoreStatusReporter
	log             *logger.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(
	wardrobe *services.WardrobeService,
	outfits *services.OutfitService,
	preferences *services.PreferenceAggregator,
	profiles *services.ProfileService,
	limiter *services.RateLimiter,
	recommendations *services.RecommendationService,
	health HealthChecker,
	status StoreStatusReporter,
	log *logger.Logger,
) *APIHandler {
	return &APIHandler{
		wardrobe:        wardrobe,
		outfits:         outfits,
		preferences:     preferences,
		profiles:        profiles,
		limiter:         limiter,
		recommendations: recommendations,
		health:          health,
		status:          status,
		log:             log.With("component", "APIHandler"),
	}
}

// SetupRoutes configures all API routes
func (h *APIHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/health", h.Health)

		user := api.Group("/users/:userId")
		user.GET("/items", h.ListItems)
		user.POST("/items", h.AddItem)
		user.POST("/items/analyze", h.AnalyzeImages)
		user.PATCH("/items/:itemId", h.UpdateItem)
		user.POST("/items/:itemId/favorite", h.ToggleItemFavorite)
		user.POST("/items/:itemId/laundry", h.ToggleLaundry)
		user.DELETE("/items/:itemId", h.DeleteItem)
		user.GET("/analysis", h.AnalyzeWardrobe)

		user.POST("/outfits", h.GenerateOutfit)
		user.GET("/outfits", h.ListOutfits)
		user.POST("/outfits/:outfitId/rating", h.RateOutfit)
		user.POST("/outfits/:outfitId/favorite", h.ToggleOutfitFavorite)
		user.PUT("/outfits/:outfitId/image", h.SetOutfitImage)
		user.DELETE("/outfits/:outfitId", h.DeleteOutfit)

		user.GET("/preferences", h.GetPreferences)
		user.GET("/preferences/top-items", h.GetTopItems)
		user.GET("/preferences/low-items", h.GetLowItems)
		user.GET("/preferences/color-combinations", h.GetColorCombinations)

		user.GET("/profile", h.GetProfile)
		user.PUT("/profile", h.UpdateProfile)
		user.POST("/profile/complete-setup", h.CompleteSetup)

		user.GET("/usage", h.GetUsage)
		user.POST("/recommendations", h.GenerateRecommendations)
	}
}

// Health reports Neo4j connectivity and node counts
func (h *APIHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.health.Health(ctx); err != nil {
		h.log.Error("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	body := gin.H{"status": "ok"}
	if h.status != nil {
		if counts, err := h.status.GetStoreStatus(ctx); err == nil {
			body["store"] = counts
		}
	}
	c.JSON(http.StatusOK, body)
}

// queryLimit parses ?limit=, falling back to def for missing or invalid values
func queryLimit(c *gin.Context, def int) int {
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func readUpload(fh *multipart.FileHeader) (services.ImageUpload, error) {
	if fh.Size > maxImageBytes {
		return services.ImageUpload{}, apperr.Invalid("%s is larger than %d MB", fh.Filename, maxImageBytes>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return services.ImageUpload{}, apperr.Invalid("cannot read %s: %v", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return services.ImageUpload{}, apperr.Invalid("cannot read %s: %v", fh.Filename, err)
	}
	if len(data) > maxImageBytes {
		return services.ImageUpload{}, apperr.Invalid("%s is larger than %d MB", fh.Filename, maxImageBytes>>20)
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return services.ImageUpload{FileName: fh.Filename, ContentType: contentType, Data: data}, nil
}

// ListItems returns the user's catalog
func (h *APIHandler) ListItems(c *gin.Context) {
	userID := c.Param("userId")
	items, err := h.wardrobe.List(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"items":   items,
		"count":   len(items),
	})
}

// AddItem uploads one photo and adds every garment detected in it
func (h *APIHandler) AddItem(c *gin.Context) {
	userID := c.Param("userId")
	fh, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, "multipart field \"image\" is required")
		return
	}
	upload, err := readUpload(fh)
	if err != nil {
		respondErr(c, err)
		return
	}

	items, err := h.wardrobe.AddFromImage(c.Request.Context(), userID, upload)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user_id":        userID,
		"items":          items,
		"detected_count": len(items),
	})
}

// AnalyzeImages runs detection over several photos without saving
func (h *APIHandler) AnalyzeImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, "multipart form required")
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		respondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, "multipart field \"images\" is required")
		return
	}
	if len(files) > maxAnalyzeImages {
		respondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Sprintf("at most %d images per request", maxAnalyzeImages))
		return
	}

	uploads := make([]services.ImageUpload, 0, len(files))
	for _, fh := range files {
		upload, err := readUpload(fh)
		if err != nil {
			respondErr(c, err)
			return
		}
		uploads = append(uploads, upload)
	}

	results := h.wardrobe.AnalyzeImages(c.Request.Context(), uploads)
	detected, failed := 0, 0
	for _, r := range results {
		detected += len(r.Items)
		if r.Error != "" {
			failed++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"total_files":    len(results),
		"results":        results,
		"detected_count": detected,
		"failed_count":   failed,
	})
}

// UpdateItem applies user corrections to an item
func (h *APIHandler) UpdateItem(c *gin.Context) {
	var update models.ItemUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, "Invalid request body")
		return
	}
	item, err := h.wardrobe.Update(c.Request.Context(), c.Param("userId"), c.Param("itemId"), update)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ToggleItemFavorite flips an item's favorite flag
func (h *APIHandler) ToggleItemFavorite(c *gin.Context) {
	item, err := h.wardrobe.ToggleFavorite(c.Request.Context(), c.Param("userId"), c.Param("itemId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ToggleLaundry moves an item into or out of the laundry
func (h *APIHandler) ToggleLaundry(c *gin.Context) {
	item, err := h.wardrobe.ToggleLaundry(c.Request.Context(), c.Param("userId"), c.Param("itemId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem removes an item and, when unshared, its photo
func (h *APIHandler) DeleteItem(c *gin.Context) {
	if err := h.wardrobe.Delete(c.Request.Context(), c.Param("userId"), c.Param("itemId")); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AnalyzeWardrobe reports category, color, style and season coverage
func (h *APIHandler) AnalyzeWardrobe(c *gin.Context) {
	userID := c.Param("userId")
	analysis, err := h.recommendations.AnalyzeWardrobe(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":        userID,
		"analysis":       analysis,
		"current_season": services.CurrentSeason(time.Now()),
	})
}

type generateOutfitRequest struct {
	Weather *struct {
		Temp      float64 `json:"temp" binding:"gte=-80,lte=150"`
		Condition string  `json:"condition" binding:"max=100"`
		Location  string  `json:"location" binding:"max=200"`
	} `json:"weather"`
	Occasion     string `json:"occasion" binding:"max=200"`
	Style        string `json:"style" binding:"max=200"`
	AnchorItemID string `json:"anchor_item_id" binding:"max=100"`
}

// GenerateOutfit generates, stores and returns a new outfit
func (h *APIHandler) GenerateOutfit(c *gin.Context) {
	var body generateOutfitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, "Invalid request body")
			return
		}
	}

	req := models.GenerateOutfitRequest{
		Occasion:     body.Occasion,
		Style:        body.Style,
		AnchorItemID: body.AnchorItemID,
	}
	if body.Weather != nil {
		req.Weather = &models.Weather{
			Temp:      body.Weather.Temp,
			Condition: body.Weather.Condition,
			Location:  body.Weather.Location,
		}
	}

	record, err := h.outfits.Generate(c.Request.Context(), c.Param("userId"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// ListOutfits returns the user's outfit history, newest first
func (h *APIHandler) ListOutfits(c *gin.Context) {
	userID := c.Param("userId")
	outfits, err := h.outfits.History(c.Request.Context(), userID, queryLimit(c, 0))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"outfits": outfits,
		"count":   len(outfits),
	})
}

type rateOutfitRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

// RateOutfit stores a star rating and feeds it into the preference model
func (h *APIHandler) RateOutfit(c *gin.Context) {
	var body rateOutfitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, "rating must be an integer between 1 and 5")
		return
	}
	outfit, err := h.outfits.Rate(c.Request.Context(), c.Param("userId"), c.Param("outfitId"), body.Rating)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, outfit)
}

// ToggleOutfitFavorite flips an outfit's favorite flag
func (h *APIHandler) ToggleOutfitFavorite(c *gin.Context) {
	outfit, err := h.outfits.ToggleFavorite(c.Request.Context(), c.Param("userId"), c.Param("outfitId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, outfit)
}

type setImageRequest struct {
	ImageURL string `json:"image_url" binding:"required,url"`
}

// SetOutfitImage records the URL of a rendered outfit image
func (h *APIHandler) SetOutfitImage(c *gin.Context) {
	var body setImageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, "image_url must be a valid URL")
		return
	}
	outfit, err := h.outfits.SetImage(c.Request.Context(), c.Param("userId"), c.Param("outfitId"), body.ImageURL)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, outfit)
}

// DeleteOutfit removes an outfit from history
func (h *APIHandler) DeleteOutfit(c *gin.Context) {
	if err := h.outfits.Delete(c.Request.Context(), c.Param("userId"), c.Param("outfitId")); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPreferences returns the learned preference model together with the lookup status
func (h *APIHandler) GetPreferences(c *gin.Context) {
	userID := c.Param("userId")
	lookup := h.preferences.GetPreferences(c.Request.Context(), userID)
	if lookup.Status == services.LookupFailed {
		respondErr(c, lookup.Err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":     userID,
		"status":      lookup.Status.String(),
		"preferences": lookup.Model,
	})
}

// GetTopItems returns the items the user rates highest
func (h *APIHandler) GetTopItems(c *gin.Context) {
	userID := c.Param("userId")
	items, err := h.preferences.GetTopRatedItems(c.Request.Context(), userID, queryLimit(c, 0))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "items": items})
}

// GetLowItems returns the items the user consistently rates low
func (h *APIHandler) GetLowItems(c *gin.Context) {
	userID := c.Param("userId")
	items, err := h.preferences.GetLowRatedItems(c.Request.Context(), userID, queryLimit(c, 0))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "items": items})
}

// GetColorCombinations returns the user's best rated color combinations
func (h *APIHandler) GetColorCombinations(c *gin.Context) {
	userID := c.Param("userId")
	combos, err := h.preferences.GetTopColorCombinations(c.Request.Context(), userID, queryLimit(c, 0))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "combinations": combos})
}

// GetProfile returns the user's profile, empty until they save one
func (h *APIHandler) GetProfile(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile applies the fields present in the body
func (h *APIHandler) UpdateProfile(c *gin.Context) {
	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, "Invalid request body")
		return
	}
	profile, err := h.profiles.Update(c.Request.Context(), c.Param("userId"), update)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// CompleteSetup marks the profile setup as finished
func (h *APIHandler) CompleteSetup(c *gin.Context) {
	profile, err := h.profiles.CompleteSetup(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetUsage returns today's usage and remaining quota per action
func (h *APIHandler) GetUsage(c *gin.Context) {
	usage, err := h.limiter.GetDailyUsage(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

type recommendationsRequest struct {
	Limit    int    `json:"limit" binding:"gte=0,lte=20"`
	Category string `json:"category" binding:"omitempty,oneof=all top bottom shoes outerwear accessory dress suit other"`
}

// GenerateRecommendations returns shopping suggestions, optionally filtered by category
func (h *APIHandler) GenerateRecommendations(c *gin.Context) {
	var body recommendationsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, "Invalid request body")
			return
		}
	}

	userID := c.Param("userId")
	result, err := h.recommendations.GenerateRecommendations(c.Request.Context(), userID, body.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":           userID,
		"recommendations":   services.FilterByCategory(result.Recommendations, body.Category),
		"wardrobe_analysis": result.WardrobeAnalysis,
	})
}
