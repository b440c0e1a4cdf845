package models

import (
	"time"

	"gorm.io/datatypes"
)

type Address struct {
	City     string `json:"city"`
	District string `json:"district"`
	Ward     string `json:"ward"`
}

type PetOwner struct {
	UserID   string  `json:"user_id"`
	FullName string  `json:"fullname"`
	Phone    string  `json:"phone"`
	Email    string  `json:"email"`
	Address  Address `json:"address"`
}

type MedicalRecord struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Doctor      string `json:"doctor"`
}

type Pet struct {
	ID             string                             `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Name           string                             `gorm:"column:name;size:100;not null" json:"name"`
	Species        string                             `gorm:"column:species;size:50" json:"species"`
	Breed          string                             `gorm:"column:breed;size:100" json:"breed"`
	Gender         string                             `gorm:"column:gender;size:20" json:"gender"`
	Color          string                             `gorm:"column:color;size:50" json:"color"`
	Weight         float64                            `gorm:"column:weight" json:"weight"`
	DateOfBirth    time.Time                          `gorm:"column:date_of_birth" json:"dateOfBirth"`
	OwnerID        string                             `gorm:"column:owner_id;index" json:"-"`
	Owner          datatypes.JSONType[PetOwner]       `gorm:"column:owner" json:"owner"`
	AvatarURL      string                             `gorm:"column:avatar_url;size:500" json:"avatar_url"`
	MedicalRecords datatypes.JSONSlice[MedicalRecord] `gorm:"column:medical_records" json:"medical_records"`
	CreatedAt      time.Time                          `json:"createdAt"`
	UpdatedAt      time.Time                          `json:"updatedAt"`
}

func (Pet) TableName() string {
	return "pets"
}
