package pets

import (
	"strconv"
	"time"

	"github.com/pettopia/pettopia-server/cmd/models"
)

// AgeLabel renders a pet's age the way the pet pages show it: whole
// calendar years, else calendar months, else "Chưa đầy tháng".
func AgeLabel(dateOfBirth, now time.Time) string {
	if dateOfBirth.IsZero() {
		return "Chưa rõ"
	}
	years := now.Year() - dateOfBirth.Year()
	months := int(now.Month()) - int(dateOfBirth.Month())
	switch {
	case years > 0:
		return strconv.Itoa(years) + " tuổi"
	case months > 0:
		return strconv.Itoa(months) + " tháng"
	default:
		return "Chưa đầy tháng"
	}
}

// Profile is a pet as the list and ID card pages render it.
type Profile struct {
	models.Pet
	Age           string `json:"age"`
	BirthDate     string `json:"birth_date"`
	OwnerName     string `json:"owner_name"`
	OwnerLocation string `json:"owner_location"`
}

func ProfileOf(p models.Pet, now time.Time) Profile {
	owner := p.Owner.Data()
	location := owner.Address.Ward
	for _, part := range []string{owner.Address.District, owner.Address.City} {
		if part == "" {
			continue
		}
		if location != "" {
			location += ", "
		}
		location += part
	}
	birth := "Chưa rõ"
	if !p.DateOfBirth.IsZero() {
		birth = p.DateOfBirth.Format("02/01/2006")
	}
	return Profile{
		Pet:           p,
		Age:           AgeLabel(p.DateOfBirth, now),
		BirthDate:     birth,
		OwnerName:     owner.FullName,
		OwnerLocation: location,
	}
}
