package types

import (
	"time"

	"github.com/google/uuid"
)

// Photo file naming. The photo for a crime lives outside the database and
// is located by PhotoFileName.
const (
	photoPrefix = "IMG_"
	photoSuffix = ".jpg"
)

// Crime is a single case record.
type Crime struct {
	ID       uuid.UUID `json:"id"`      // Generated on creation, never reassigned.
	Title    string    `json:"title"`   // Free text, defaults to empty.
	Suspect  string    `json:"suspect"` // Empty means no suspect chosen.
	Date     time.Time `json:"date"`    // When the crime occurred; defaults to creation time.
	IsSolved bool      `json:"solved"`
}

// NewCrime returns a crime with a fresh UUID v7 and default fields.
func NewCrime() Crime {
	return Crime{
		ID:   NewID(),
		Date: time.Now(),
	}
}

// NewID generates a UUID v7, falling back to v4 if v7 generation fails.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// PhotoFileName returns the deterministic file name of the crime's photo.
func (c Crime) PhotoFileName() string {
	return photoPrefix + c.ID.String() + photoSuffix
}

// HasSuspect reports whether a suspect has been chosen.
func (c Crime) HasSuspect() bool {
	return c.Suspect != ""
}

// Validate checks the fields that the store relies on.
func (c Crime) Validate() error {
	if c.ID == uuid.Nil {
		return ErrInvalidID
	}
	return nil
}
