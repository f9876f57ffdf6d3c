package pagegen

import "fmt"

// Placeholder content used when the API cannot serve an entity.
const (
	DefaultDescription = "Chat with this AI character on GigaSpace. Start a conversation and discover a unique personality."
	DefaultImage       = "/images/default-character.png"
	DefaultCategory    = "default"
)

// DefaultEntity synthesizes the placeholder record for id.
func DefaultEntity(id int) EntityRecord {
	return EntityRecord{
		ID:          id,
		Name:        fmt.Sprintf("Character %d", id),
		Description: DefaultDescription,
		Image:       DefaultImage,
	}
}
