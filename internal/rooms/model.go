package rooms

import (
	"errors"
	"time"
)

const maxRoomNameLength = 190

// ErrInvalidRoomName indicates an empty or oversized room name.
var ErrInvalidRoomName = errors.New("rooms: invalid room name")

// Room is a named destination department or office for distributed
// documents. Names are not unique; duplicates are legal and counted
// separately by aggregation.
type Room struct {
	ID        string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	Name      string    `gorm:"column:name;size:190;not null;index" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Room) TableName() string {
	return "rooms"
}
