package menu

import (
	"errors"
	"time"
)

// DefaultPreparationTime is applied when an item is created without one (minutes).
const DefaultPreparationTime = 15

// ErrNotFound is returned by Service when a menu item id does not resolve.
var ErrNotFound = errors.New("menu item not found")

// Item is a purchasable menu entry.
type Item struct {
	ItemID          string    `json:"id" dynamodbav:"menu_item_id"` // PK
	Name            string    `json:"name" dynamodbav:"name"`
	Description     string    `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Price           float64   `json:"price" dynamodbav:"price"`
	Category        string    `json:"category" dynamodbav:"category"`
	Image           string    `json:"image,omitempty" dynamodbav:"image,omitempty"`
	Available       bool      `json:"available" dynamodbav:"available"`
	PreparationTime int       `json:"preparation_time" dynamodbav:"preparation_time"` // minutes
	CreatedAt       time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// Filter narrows List results; zero value lists everything.
type Filter struct {
	Category      string
	AvailableOnly bool
}

// Input carries the writable fields of an Item.
type Input struct {
	Name            string
	Description     string
	Price           float64
	Category        string
	Image           string
	Available       *bool
	PreparationTime int
}
