package db

import (
	"context"
	"errors"

	"github.com/pettopia/pettopia-server/cmd/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("record not found")

type PetStore struct {
	db *gorm.DB
}

func NewPetStore(db *gorm.DB) *PetStore {
	return &PetStore{db: db}
}

func (s *PetStore) ListPets(ctx context.Context) ([]models.Pet, error) {
	var pets []models.Pet
	if err := s.db.WithContext(ctx).Order("created_at ASC, name ASC").Find(&pets).Error; err != nil {
		return nil, err
	}
	return pets, nil
}

func (s *PetStore) GetPet(ctx context.Context, id string) (*models.Pet, error) {
	var pet models.Pet
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&pet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pet, nil
}

// UpsertPets inserts pets, overwriting rows that share an id.
func (s *PetStore) UpsertPets(ctx context.Context, pets []models.Pet) error {
	if len(pets) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&pets).Error
}
