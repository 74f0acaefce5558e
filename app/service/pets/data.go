package pets

import "time"

type Pet struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Species      string    `json:"species"`
	Breed        string    `json:"breed,omitempty"`
	Age          int       `json:"age,omitempty"`
	Weight       float64   `json:"weight,omitempty"`
	Owner        string    `json:"owner"`
	DietaryNeeds string    `json:"dietary_needs,omitempty"`
	Allergies    []string  `json:"allergies,omitempty"`
	LastCheckup  time.Time `json:"last_checkup,omitzero"`
}

type AddPetRequest struct {
	Name         string   `json:"name" validate:"required"`
	Species      string   `json:"species" validate:"required"`
	Breed        string   `json:"breed"`
	Age          int      `json:"age" validate:"gte=0"`
	Weight       float64  `json:"weight" validate:"gte=0"`
	Owner        string   `json:"owner" validate:"required"`
	DietaryNeeds string   `json:"dietary_needs"`
	Allergies    []string `json:"allergies"`
}
