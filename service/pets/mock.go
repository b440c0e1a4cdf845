package pets

import (
	"time"

	"github.com/pettopia/pettopia-server/cmd/models"
	"gorm.io/datatypes"
)

// SeedPets are the demo pets loaded by the seed command.
func SeedPets() []models.Pet {
	owner := datatypes.NewJSONType(models.PetOwner{
		UserID:   "265b7f9b-a78e-4adf-b251-ff158f15141d",
		FullName: "Nguyễn VIệt Đức",
		Phone:    "0975489030",
		Email:    "nvd3002@gmail.com",
		Address: models.Address{
			City:     "Hanoi",
			District: "Hà đông",
			Ward:     "Mộ lao",
		},
	})
	created := time.Date(2025, 10, 29, 9, 17, 56, 674e6, time.UTC)

	pet := func(id, name, species, breed, gender, color string, weight float64, born time.Time, avatar string) models.Pet {
		return models.Pet{
			ID:             id,
			Name:           name,
			Species:        species,
			Breed:          breed,
			Gender:         gender,
			Color:          color,
			Weight:         weight,
			DateOfBirth:    born,
			OwnerID:        owner.Data().UserID,
			Owner:          owner,
			AvatarURL:      avatar,
			MedicalRecords: datatypes.JSONSlice[models.MedicalRecord]{},
			CreatedAt:      created,
			UpdatedAt:      created,
		}
	}

	return []models.Pet{
		pet("19522b8e-a13e-476e-a708-c776dc59f397", "Milo", "Dog", "Golden Retriever", "Male", "Golden Brown", 12.5,
			time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC),
			"https://hoanghamobile.com/tin-tuc/wp-content/uploads/2024/05/anh-cho-hai-1.jpg"),
		pet("19522b8e-a13e-476e-a708-c776dc59f398", "Luna", "Cat", "British Shorthair", "Female", "Gray", 4.2,
			time.Date(2022, 8, 20, 0, 0, 0, 0, time.UTC),
			"https://images.unsplash.com/photo-1514888286974-6c03e2ca1dba?w=400"),
		pet("19522b8e-a13e-476e-a708-c776dc59f399", "Buddy", "Dog", "Labrador", "Male", "Yellow", 15.8,
			time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC),
			"https://images.unsplash.com/photo-1583337130417-3346a1be7dee?w=400"),
	}
}
