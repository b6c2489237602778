package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/landscaipe/contractor-portal/internal/models"
)

// MoveUp / MoveDown are the photo reordering directions.
const (
	MoveUp   = "up"
	MoveDown = "down"
)

// PhotoStore is the minimal photo repository interface for the slot manager.
type PhotoStore interface {
	Create(ctx context.Context, p *models.Photo) error
	ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]*models.Photo, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetFeatured(ctx context.Context, id uuid.UUID, isFeatured bool) error
	SetSortOrder(ctx context.Context, id uuid.UUID, sortOrder int) error
}

// PhotoService manages a contractor's bounded, ordered portfolio: at most
// 10 photos, at most 3 featured, sort orders pairwise distinct.
type PhotoService struct {
	Photos PhotoStore
	Now    func() time.Time
}

func NewPhotoService(photos PhotoStore) *PhotoService {
	return &PhotoService{Photos: photos, Now: time.Now}
}

// Add appends a photo at the end of the contractor's order. If adding as
// featured would push the featured count past the cap, the newest
// previously-featured photos are un-featured until the cap holds again, so
// the invariant survives even racing feature toggles.
func (s *PhotoService) Add(ctx context.Context, contractorID uuid.UUID, url, thumbURL string, isFeatured bool) (*models.Photo, error) {
	existing, err := s.Photos.ListByContractor(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= models.MaxPhotosTotal {
		return nil, ErrPhotoLimitReached
	}

	maxOrder := 0
	for _, p := range existing {
		if p.SortOrder > maxOrder {
			maxOrder = p.SortOrder
		}
	}

	if thumbURL == "" {
		thumbURL = url
	}
	photo := &models.Photo{
		ID:           uuid.New(),
		ContractorID: contractorID,
		URL:          url,
		ThumbURL:     thumbURL,
		IsFeatured:   isFeatured,
		SortOrder:    maxOrder + 1,
	}
	if err := s.Photos.Create(ctx, photo); err != nil {
		return nil, err
	}

	if isFeatured {
		if err := s.enforceFeaturedCap(ctx, append(existing, photo)); err != nil {
			return nil, err
		}
	}
	return photo, nil
}

// enforceFeaturedCap un-features the newest-by-sortOrder featured photos
// until at most MaxFeaturedCount remain.
func (s *PhotoService) enforceFeaturedCap(ctx context.Context, photos []*models.Photo) error {
	var featured []*models.Photo
	for _, p := range photos {
		if p.IsFeatured {
			featured = append(featured, p)
		}
	}
	if len(featured) <= models.MaxFeaturedCount {
		return nil
	}
	sort.Slice(featured, func(i, j int) bool { return featured[i].SortOrder > featured[j].SortOrder })
	for _, p := range featured[:len(featured)-models.MaxFeaturedCount] {
		p.IsFeatured = false
		if err := s.Photos.SetFeatured(ctx, p.ID, false); err != nil {
			return err
		}
	}
	return nil
}

func (s *PhotoService) Delete(ctx context.Context, contractorID, photoID uuid.UUID) (*models.Photo, error) {
	photos, err := s.Photos.ListByContractor(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	target := findPhoto(photos, photoID)
	if target == nil {
		return nil, ErrPhotoNotFound
	}
	// No re-numbering: sort orders stay distinct without being contiguous.
	if err := s.Photos.Delete(ctx, target.ID); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *PhotoService) SetFeatured(ctx context.Context, contractorID, photoID uuid.UUID, want bool) (*models.Photo, error) {
	photos, err := s.Photos.ListByContractor(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	target := findPhoto(photos, photoID)
	if target == nil {
		return nil, ErrPhotoNotFound
	}
	if want && !target.IsFeatured {
		featured := 0
		for _, p := range photos {
			if p.IsFeatured && p.ID != photoID {
				featured++
			}
		}
		if featured >= models.MaxFeaturedCount {
			return nil, ErrFeaturedLimitReached
		}
	}
	if err := s.Photos.SetFeatured(ctx, target.ID, want); err != nil {
		return nil, err
	}
	target.IsFeatured = want
	return target, nil
}

// Move swaps the photo's sortOrder with its neighbor in the given
// direction. A move at the boundary is a successful no-op.
func (s *PhotoService) Move(ctx context.Context, contractorID, photoID uuid.UUID, direction string) error {
	photos, err := s.Photos.ListByContractor(ctx, contractorID)
	if err != nil {
		return err
	}
	sort.Slice(photos, func(i, j int) bool { return photos[i].SortOrder < photos[j].SortOrder })

	idx := -1
	for i, p := range photos {
		if p.ID == photoID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrPhotoNotFound
	}

	swapWith := idx + 1
	if direction == MoveUp {
		swapWith = idx - 1
	}
	if swapWith < 0 || swapWith >= len(photos) {
		return nil
	}

	a, b := photos[idx], photos[swapWith]
	if err := s.Photos.SetSortOrder(ctx, a.ID, b.SortOrder); err != nil {
		return err
	}
	if err := s.Photos.SetSortOrder(ctx, b.ID, a.SortOrder); err != nil {
		return err
	}
	a.SortOrder, b.SortOrder = b.SortOrder, a.SortOrder
	return nil
}

// List returns photos in presentation order.
func (s *PhotoService) List(ctx context.Context, contractorID uuid.UUID) ([]*models.Photo, error) {
	photos, err := s.Photos.ListByContractor(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	sort.Slice(photos, func(i, j int) bool { return photos[i].SortOrder < photos[j].SortOrder })
	return photos, nil
}

func findPhoto(photos []*models.Photo, id uuid.UUID) *models.Photo {
	for _, p := range photos {
		if p.ID == id {
			return p
		}
	}
	return nil
}
