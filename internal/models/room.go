package models

import (
	"time"

	"github.com/lib/pq"
)

// Room is a listing owned by a landlord.
type Room struct {
	ID          int64          `db:"id" json:"id"`
	LandlordID  int64          `db:"landlord_id" json:"landlord_id"`
	Title       string         `db:"title" json:"title"`
	Images      pq.StringArray `db:"images" json:"images"`
	Rent        int64          `db:"rent" json:"rent"`
	RentVisible bool           `db:"rent_visible" json:"rent_visible"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
