package utils

import (
	"log"

	"github.com/google/uuid"
)

// GenerateID returns a new UUID v4 string, used for primary keys and JWT IDs
func GenerateID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		log.Printf("Failed to generate UUID: %v", err)
		return ""
	}
	return id.String()
}
