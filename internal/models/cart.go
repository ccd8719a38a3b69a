package models

import "time"

// Cart is an anonymous visitor's cart keyed by the client-held cart token.
type Cart struct {
	ID        uint      `gorm:"primaryKey"              json:"id"`
	CartToken string    `gorm:"size:250;uniqueIndex"    json:"cart_token"`
	CreatedAt time.Time `json:"created_at"`
}

// CartItem is owned either by a Cart or by an account, never both.
type CartItem struct {
	ID         uint        `gorm:"primaryKey"                         json:"id"`
	UserID     *uint       `gorm:"index"                              json:"user_id,omitempty"`
	CartID     *uint       `gorm:"index"                              json:"cart_id,omitempty"`
	ProductID  uint        `gorm:"index;not null"                     json:"product_id"`
	Product    *Product    `json:"product,omitempty"`
	Variations []Variation `gorm:"many2many:cart_item_variations"     json:"variations"`
	Quantity   uint        `gorm:"not null;check:quantity > 0"        json:"quantity"`
	IsActive   bool        `json:"is_active"`
}

func (c CartItem) SubTotal() float64 {
	if c.Product == nil {
		return 0
	}
	return c.Product.Price * float64(c.Quantity)
}
