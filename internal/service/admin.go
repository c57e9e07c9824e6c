package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/repository"
)

// recentBookings is how many bookings the admin overview lists.
const recentBookings = 10

// TurfInput is the add-turf form.  Price arrives as text and is parsed as
// a decimal.
type TurfInput struct {
	Name         string `json:"name"`
	Location     string `json:"location"`
	Description  string `json:"description"`
	PricePerHour string `json:"price_per_hour"`
	ImageURL     string `json:"image_url"`
}

// Validate checks that every field is present and the price is a positive
// amount.
func (in TurfInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Location, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Description, validation.Required),
		validation.Field(&in.PricePerHour, validation.Required, validation.By(positiveAmount)),
		validation.Field(&in.ImageURL, validation.Required, validation.Length(1, 255)),
	)
}

func positiveAmount(value interface{}) error {
	s, _ := value.(string)
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a number")
	}
	if !d.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
}

// AdminOverview is the admin dashboard: latest bookings and all turfs.
type AdminOverview struct {
	Bookings []model.ReportRow `json:"bookings"`
	Turfs    []model.Turf      `json:"turfs"`
}

// AdminService implements the administrator operations.
type AdminService struct {
	tx       TxManager
	turfs    TurfStore
	bookings BookingStore
	cache    CacheInvalidator
	log      zerolog.Logger
}

// NewAdminService wires an AdminService.  cache may be nil.
func NewAdminService(tx TxManager, turfs TurfStore, bookings BookingStore, cache CacheInvalidator, log zerolog.Logger) *AdminService {
	return &AdminService{
		tx:       tx,
		turfs:    turfs,
		bookings: bookings,
		cache:    cache,
		log:      log.With().Str("component", "admin").Logger(),
	}
}

// Overview lists the most recent bookings and every turf by name.
func (s *AdminService) Overview(ctx context.Context) (AdminOverview, error) {
	rows, err := s.bookings.ReportRows(ctx, recentBookings)
	if err != nil {
		return AdminOverview{}, fmt.Errorf("recent bookings: %w", err)
	}
	turfs, err := s.turfs.ListByName(ctx)
	if err != nil {
		return AdminOverview{}, fmt.Errorf("list turfs: %w", err)
	}
	return AdminOverview{Bookings: rows, Turfs: turfs}, nil
}

// AddTurf validates and stores a new turf.
func (s *AdminService) AddTurf(ctx context.Context, in TurfInput) (model.Turf, error) {
	in = TurfInput{
		Name:         strings.TrimSpace(in.Name),
		Location:     strings.TrimSpace(in.Location),
		Description:  strings.TrimSpace(in.Description),
		PricePerHour: strings.TrimSpace(in.PricePerHour),
		ImageURL:     strings.TrimSpace(in.ImageURL),
	}
	if err := in.Validate(); err != nil {
		return model.Turf{}, invalid("Invalid turf: " + err.Error())
	}
	price, _ := decimal.NewFromString(in.PricePerHour)
	t := model.Turf{
		Name:         in.Name,
		Location:     in.Location,
		Description:  in.Description,
		PricePerHour: price.Round(2),
		ImageURL:     in.ImageURL,
	}
	if err := s.turfs.Create(ctx, &t); err != nil {
		return model.Turf{}, fmt.Errorf("create turf: %w", err)
	}
	s.log.Info().Uint64("turf_id", t.ID).Str("name", t.Name).Msg("turf added")
	s.invalidate(ctx)
	return t, nil
}

// RemoveTurf deletes the turf and all of its bookings atomically.
func (s *AdminService) RemoveTurf(ctx context.Context, id uint64) error {
	var removed int64
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		if _, err := s.turfs.GetByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTurfNotFound
			}
			return fmt.Errorf("load turf: %w", err)
		}
		n, err := s.bookings.DeleteByTurf(ctx, id)
		if err != nil {
			return fmt.Errorf("delete bookings: %w", err)
		}
		removed = n
		if err := s.turfs.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete turf: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info().Uint64("turf_id", id).Int64("bookings_removed", removed).Msg("turf removed")
	s.invalidate(ctx)
	return nil
}

// ReportRows returns every booking joined with user and turf, most recent
// slot first.
func (s *AdminService) ReportRows(ctx context.Context) ([]model.ReportRow, error) {
	rows, err := s.bookings.ReportRows(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("report rows: %w", err)
	}
	return rows, nil
}

func (s *AdminService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("cache invalidation failed")
	}
}
