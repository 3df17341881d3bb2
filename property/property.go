package property

import "time"

type Property struct {
	ID            int64     `json:"id"`
	OwnerID       int64     `json:"ownerId"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Location      string    `json:"location"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	Country       string    `json:"country"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"imageUrl"`
	PricePerNight float64   `json:"pricePerNight"`
	MaxGuests     int       `json:"maxGuests"`
	AvailableFrom time.Time `json:"availableFrom"`
	AvailableTo   time.Time `json:"availableTo"`
	CreatedAt     time.Time `json:"createdAt"`
}
