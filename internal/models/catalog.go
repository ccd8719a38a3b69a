package models

import "time"

type Category struct {
	ID          uint   `gorm:"primaryKey"            json:"id"`
	Name        string `gorm:"size:50;uniqueIndex"   json:"name"`
	Slug        string `gorm:"size:100;uniqueIndex"  json:"slug"`
	Description string `gorm:"size:255"              json:"description"`
}

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:200;uniqueIndex"     json:"name"`
	Slug        string    `gorm:"size:200;uniqueIndex"     json:"slug"`
	Description string    `gorm:"size:500"                 json:"description"`
	Price       float64   `gorm:"not null"                 json:"price"`
	Images      string    `gorm:"size:255"                 json:"images"`
	Stock       uint      `json:"stock"`
	IsAvailable bool      `gorm:"index"                    json:"is_available"`
	CategoryID  uint      `gorm:"index"                    json:"category_id"`
	Category    *Category `json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	VariationColor = "color"
	VariationSize  = "size"
)

type Variation struct {
	ID        uint      `gorm:"primaryKey"        json:"id"`
	ProductID uint      `gorm:"index;not null"    json:"product_id"`
	Category  string    `gorm:"size:100;not null" json:"category"`
	Value     string    `gorm:"size:100;not null" json:"value"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type ProductGallery struct {
	ID        uint   `gorm:"primaryKey"     json:"id"`
	ProductID uint   `gorm:"index;not null" json:"product_id"`
	Image     string `gorm:"size:255"       json:"image"`
}

type ReviewRating struct {
	ID        uint      `gorm:"primaryKey"                           json:"id"`
	ProductID uint      `gorm:"uniqueIndex:idx_review_user_product" json:"product_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_review_user_product" json:"user_id"`
	Subject   string    `gorm:"size:100"                             json:"subject"`
	Review    string    `gorm:"size:500"                             json:"review"`
	Rating    float64   `json:"rating"`
	IP        string    `gorm:"size:20"                              json:"-"`
	Status    bool      `gorm:"default:true"                         json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
