package distributions

import (
	"time"

	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/documents"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/rooms"
)

// Distribution links one incoming document to one destination room. The
// (incoming_document_id, room_id) pair is unique; re-sending the same pair
// is skipped, never an error.
type Distribution struct {
	ID                 string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	IncomingDocumentID string    `gorm:"column:incoming_document_id;size:190;not null;uniqueIndex:idx_distributions_doc_room,priority:1" json:"incoming_document_id"`
	RoomID             string    `gorm:"column:room_id;size:190;not null;uniqueIndex:idx_distributions_doc_room,priority:2" json:"room_id"`
	SentAt             time.Time `gorm:"column:sent_at;not null;index" json:"sent_at"`
	SentBy             string    `gorm:"column:sent_by;size:190" json:"sent_by,omitempty"`
	CreatedAt          time.Time `gorm:"column:created_at;not null" json:"created_at"`

	// Expanded relations, populated on reads. Room stays nil when the room
	// was deleted after the send; display resolves that as unspecified.
	IncomingDocument *documents.Document `gorm:"foreignKey:IncomingDocumentID;references:ID" json:"incoming_document,omitempty"`
	Room             *rooms.Room         `gorm:"foreignKey:RoomID;references:ID" json:"room,omitempty"`
}

// TableName provides the explicit table binding for GORM.
func (Distribution) TableName() string {
	return "document_distributions"
}

// Pair identifies one requested document-to-room send.
type Pair struct {
	IncomingDocumentID string `json:"incoming_document_id"`
	RoomID             string `json:"room_id"`
}
