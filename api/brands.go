package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bazar/adapters/cache"
	"bazar/i18n"
	"bazar/models"
	"bazar/offers"
)

// BrandContentView 是單一語言的品牌內容
type BrandContentView struct {
	Language    string `json:"language" binding:"required,max=8"`
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
}

// BrandView 是品牌的對外表示
// Name 與 Description 依請求語言解析，Contents 則包含所有語言
type BrandView struct {
	ID          uuid.UUID          `json:"id"`
	Slug        string             `json:"slug"`
	LogoURL     string             `json:"logo_url,omitempty"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Contents    []BrandContentView `json:"contents,omitempty"`
}

func newBrandView(brand *models.Brand, lang string) BrandView {
	view := BrandView{
		ID:      brand.ID,
		Slug:    brand.Slug,
		LogoURL: brand.LogoURL,
	}
	var fallback *models.BrandContent
	for i := range brand.Contents {
		content := &brand.Contents[i]
		view.Contents = append(view.Contents, BrandContentView{
			Language:    content.Language,
			Name:        content.Name,
			Description: content.Description,
		})
		if content.Language == lang {
			view.Name = content.Name
			view.Description = content.Description
		}
		if content.Language == i18n.DefaultLanguage {
			fallback = content
		}
	}
	if view.Name == "" {
		if fallback == nil && len(brand.Contents) > 0 {
			fallback = &brand.Contents[0]
		}
		if fallback != nil {
			view.Name = fallback.Name
			view.Description = fallback.Description
		}
	}
	return view
}

// List brands
// (GET /brands)
func (impl *ServerImpl) ListBrands(c *gin.Context) {
	lang := requestLanguage(c)
	views, err := cache.Remember(c.Request.Context(), impl.cache, "brands:all:"+lang, []string{"brands"}, func() ([]BrandView, error) {
		var brands []models.Brand
		if err := impl.db.WithContext(c.Request.Context()).
			Preload("Contents").
			Order("slug asc").
			Find(&brands).Error; err != nil {
			return nil, err
		}
		views := make([]BrandView, 0, len(brands))
		for i := range brands {
			views = append(views, newBrandView(&brands[i], lang))
		}
		return views, nil
	})
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

// Get a brand by slug
// (GET /brands/{slug})
func (impl *ServerImpl) GetBrand(c *gin.Context) {
	lang := requestLanguage(c)
	slug := c.Param("slug")

	view, err := cache.Remember(c.Request.Context(), impl.cache, "brands:slug:"+slug+":"+lang, []string{"brands"}, func() (BrandView, error) {
		var brand models.Brand
		if err := impl.db.WithContext(c.Request.Context()).
			Preload("Contents").
			First(&brand, "slug = ?", slug).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return BrandView{}, &offers.NotFoundError{Entity: "brand"}
			}
			return BrandView{}, err
		}
		return newBrandView(&brand, lang), nil
	})
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateBrandRequest 是管理員建立品牌的請求
type CreateBrandRequest struct {
	Slug     string             `json:"slug" binding:"required,max=128"`
	LogoURL  string             `json:"logo_url"`
	Contents []BrandContentView `json:"contents" binding:"required,min=1,dive"`
}

// Create a brand
// (POST /admin/brands)
func (impl *ServerImpl) CreateBrand(c *gin.Context) {
	var request CreateBrandRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	brand := models.Brand{
		Slug:    request.Slug,
		LogoURL: request.LogoURL,
	}
	err := impl.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&brand).Error; err != nil {
			return err
		}
		for _, content := range request.Contents {
			if err := tx.Create(&models.BrandContent{
				BrandID:     brand.ID,
				Language:    content.Language,
				Name:        content.Name,
				Description: content.Description,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			impl.respondError(c, &offers.ConflictError{Reason: "brand slug already exists"})
			return
		}
		impl.respondError(c, err)
		return
	}
	if err := impl.cache.InvalidateTags(c.Request.Context(), "brands"); err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": brand.ID, "slug": brand.Slug})
}

// UpdateBrandRequest 是管理員更新品牌的請求
// Contents 依語言做upsert，沒提到的語言維持原樣
type UpdateBrandRequest struct {
	LogoURL  *string            `json:"logo_url"`
	Contents []BrandContentView `json:"contents" binding:"dive"`
}

// Update a brand
// (PUT /admin/brands/{slug})
func (impl *ServerImpl) UpdateBrand(c *gin.Context) {
	slug := c.Param("slug")
	var request UpdateBrandRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	err := impl.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var brand models.Brand
		if err := tx.First(&brand, "slug = ?", slug).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &offers.NotFoundError{Entity: "brand"}
			}
			return err
		}
		if request.LogoURL != nil {
			if err := tx.Model(&models.Brand{}).Where("id = ?", brand.ID).
				Update("logo_url", *request.LogoURL).Error; err != nil {
				return err
			}
		}
		for _, content := range request.Contents {
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "brand_id"}, {Name: "language"}},
				TargetWhere: clause.Where{Exprs: []clause.Expression{
					clause.Eq{Column: clause.Column{Name: "deleted_at"}, Value: nil},
				}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "description", "updated_at"}),
			}).Create(&models.BrandContent{
				BrandID:     brand.ID,
				Language:    content.Language,
				Name:        content.Name,
				Description: content.Description,
			}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		impl.respondError(c, err)
		return
	}
	if err := impl.cache.InvalidateTags(c.Request.Context(), "brands"); err != nil {
		impl.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete a brand
// (DELETE /admin/brands/{slug})
func (impl *ServerImpl) DeleteBrand(c *gin.Context) {
	slug := c.Param("slug")

	err := impl.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var brand models.Brand
		if err := tx.First(&brand, "slug = ?", slug).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &offers.NotFoundError{Entity: "brand"}
			}
			return err
		}
		if err := tx.Where("brand_id = ?", brand.ID).Delete(&models.BrandContent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&brand).Error
	})
	if err != nil {
		impl.respondError(c, err)
		return
	}
	if err := impl.cache.InvalidateTags(c.Request.Context(), "brands"); err != nil {
		impl.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
