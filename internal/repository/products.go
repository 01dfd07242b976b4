package repository

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openkiosk/catalogd/internal/domain"
	"github.com/openkiosk/catalogd/internal/mediastore"
)

// ProductCreate carries the fields for a new product. Image, when set,
// is the already-stored filename returned by the media store.
type ProductCreate struct {
	Name        string
	Description string
	Price       string
	Icon        string
	Image       string
}

// ProductUpdate carries the replacement fields for an existing product.
// Every call is a full replace of Name/Description/Price/Icon; NewImage,
// when non-nil, is stored via the media store and supersedes the
// previous file.
type ProductUpdate struct {
	Name        string
	Description string
	Price       string
	Icon        string
	NewImage    *mediastore.Upload
}

// ProductRepository handles database operations for catalog products
type ProductRepository interface {
	// ListAll retrieves every product, newest first
	ListAll(ctx context.Context) ([]domain.Product, error)

	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// Create validates and inserts a product, returning the stored row
	Create(ctx context.Context, in ProductCreate) (*domain.Product, error)

	// Update replaces a product's fields, swapping the stored image
	// when new bytes are supplied
	Update(ctx context.Context, id int64, in ProductUpdate) (*domain.Product, error)

	// Delete removes a product row and its stored image file
	Delete(ctx context.Context, id int64) error
}

// GormProductRepository is the GORM implementation of ProductRepository
type GormProductRepository struct {
	db    *gorm.DB
	media *mediastore.MediaStore
}

// NewGormProductRepository creates a new GORM-based product repository
func NewGormProductRepository(db *gorm.DB, media *mediastore.MediaStore) *GormProductRepository {
	return &GormProductRepository{db: db, media: media}
}

func (r *GormProductRepository) ListAll(ctx context.Context) ([]domain.Product, error) {
	var rows []domain.Product
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *GormProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) Create(ctx context.Context, in ProductCreate) (*domain.Product, error) {
	if err := validateFields(in.Name, in.Description, in.Price); err != nil {
		return nil, err
	}

	now := time.Now()
	p := domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       strings.TrimSpace(in.Price),
		Icon:        strings.TrimSpace(in.Icon),
		Image:       in.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, errors.Wrap(err, "create product")
	}

	// re-read by generated id so the caller gets the canonical stored row
	return r.GetByID(ctx, p.ID)
}

func (r *GormProductRepository) Update(ctx context.Context, id int64, in ProductUpdate) (*domain.Product, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateFields(in.Name, in.Description, in.Price); err != nil {
		return nil, err
	}

	if in.NewImage != nil {
		name, err := r.media.Store(*in.NewImage)
		if err != nil {
			return nil, err
		}
		if p.Image != "" {
			if err := r.media.Delete(p.Image); err != nil {
				// the row will point at the new file either way; the old
				// one is picked up by the orphan sweep
				zap.L().Warn("failed to delete replaced image",
					zap.Int64("product_id", id), zap.String("image", p.Image), zap.Error(err))
			}
		}
		p.Image = name
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Price = strings.TrimSpace(in.Price)
	p.Icon = strings.TrimSpace(in.Icon)
	p.UpdatedAt = time.Now()

	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	return r.GetByID(ctx, id)
}

func (r *GormProductRepository) Delete(ctx context.Context, id int64) error {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// file first, then row: a failed row delete can leave a product
	// pointing at a missing file, which is the documented gap
	if p.Image != "" {
		if err := r.media.Delete(p.Image); err != nil {
			return err
		}
	}
	if err := r.db.WithContext(ctx).Delete(&domain.Product{}, id).Error; err != nil {
		return errors.Wrap(err, "delete product")
	}
	return nil
}

// ImageNames returns the set of image filenames referenced by any
// product row, keyed for the media store sweep.
func (r *GormProductRepository) ImageNames(ctx context.Context) (map[string]bool, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("image <> ''").
		Pluck("image", &names).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set, nil
}

func validateFields(name, description, price string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.Wrap(ErrValidation, "name is required")
	case strings.TrimSpace(description) == "":
		return errors.Wrap(ErrValidation, "description is required")
	case strings.TrimSpace(price) == "":
		return errors.Wrap(ErrValidation, "price is required")
	}
	return nil
}
