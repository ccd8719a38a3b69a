package models

import "time"

const (
	OrderStatusNew       = "New"
	OrderStatusAccepted  = "Accepted"
	OrderStatusCompleted = "Completed"
	OrderStatusCancelled = "Cancelled"
)

type Order struct {
	ID           uint      `gorm:"primaryKey"            json:"id"`
	UserID       uint      `gorm:"index;not null"        json:"user_id"`
	OrderNumber  string    `gorm:"size:20;uniqueIndex"   json:"order_number"`
	FirstName    string    `gorm:"size:50"               json:"first_name"`
	LastName     string    `gorm:"size:50"               json:"last_name"`
	Phone        string    `gorm:"size:15"               json:"phone"`
	Email        string    `gorm:"size:50"               json:"email"`
	AddressLine1 string    `gorm:"size:50"               json:"address_line_1"`
	AddressLine2 string    `gorm:"size:50"               json:"address_line_2"`
	Country      string    `gorm:"size:50"               json:"country"`
	State        string    `gorm:"size:50"               json:"state"`
	City         string    `gorm:"size:50"               json:"city"`
	OrderNote    string    `gorm:"size:100"              json:"order_note"`
	OrderTotal   float64   `json:"order_total"`
	Tax          float64   `json:"tax"`
	Status       string    `gorm:"size:10;default:New"   json:"status"`
	IP           string    `gorm:"size:20"               json:"-"`
	IsOrdered    bool      `gorm:"default:false"         json:"is_ordered"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type OrderProduct struct {
	ID           uint        `gorm:"primaryKey"                        json:"id"`
	OrderID      uint        `gorm:"index;not null"                    json:"order_id"`
	Order        *Order      `json:"-"`
	UserID       uint        `gorm:"index;not null"                    json:"user_id"`
	ProductID    uint        `gorm:"index;not null"                    json:"product_id"`
	Product      *Product    `json:"product,omitempty"`
	Variations   []Variation `gorm:"many2many:order_product_variations" json:"variations"`
	Quantity     uint        `json:"quantity"`
	ProductPrice float64     `json:"product_price"`
	Ordered      bool        `gorm:"default:false"                     json:"ordered"`
	CreatedAt    time.Time   `json:"created_at"`
}

func All() []any {
	return []any{
		&Account{}, &UserProfile{}, &RefreshToken{},
		&Category{}, &Product{}, &Variation{}, &ProductGallery{}, &ReviewRating{},
		&Cart{}, &CartItem{},
		&Order{}, &OrderProduct{},
	}
}
