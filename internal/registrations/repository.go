package registrations

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns the Postgres-backed Registry
func NewRepository(db *gorm.DB) Registry {
	return &repository{db: db}
}

func (r *repository) CountTotal(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Participant{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *repository) CountInDepartment(ctx context.Context, department string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Participant{}).
		Where("departments @> ?", pq.StringArray{department}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Participant, error) {
	var participant Participant
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Order("created_at").
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &participant, nil
}

func (r *repository) Insert(ctx context.Context, participant *Participant) error {
	return r.db.WithContext(ctx).Create(participant).Error
}

func (r *repository) MarkVerified(ctx context.Context, email string) error {
	result := r.db.WithContext(ctx).Model(&Participant{}).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Update("verified", true)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrParticipantNotFound
	}

	return nil
}
