package transport

import "github.com/Skotchmaster/storefront/internal/models"

type RegisterRequest struct {
	FirstName       string `json:"first_name"       form:"first_name"       validate:"required,max=50"`
	LastName        string `json:"last_name"        form:"last_name"        validate:"required,max=50"`
	PhoneNumber     string `json:"phone_number"     form:"phone_number"     validate:"required,max=50"`
	Email           string `json:"email"            form:"email"            validate:"required,email,max=100"`
	Password        string `json:"password"         form:"password"         validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type LoginResponse struct {
	Redirect    string `json:"redirect"`
	IsAdmin     bool   `json:"is_admin"`
	Merged      int    `json:"merged"`
	Transferred int    `json:"transferred"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password"         form:"password"         validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     form:"new_password"     validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required"`
}

type EditProfileRequest struct {
	FirstName      string `json:"first_name"      form:"first_name"      validate:"required,max=50"`
	LastName       string `json:"last_name"       form:"last_name"       validate:"required,max=50"`
	PhoneNumber    string `json:"phone_number"    form:"phone_number"    validate:"max=50"`
	AddressLine1   string `json:"address_line_1"  form:"address_line_1"  validate:"max=100"`
	AddressLine2   string `json:"address_line_2"  form:"address_line_2"  validate:"max=100"`
	ProfilePicture string `json:"profile_picture" form:"profile_picture" validate:"max=255"`
	City           string `json:"city"            form:"city"            validate:"max=20"`
	State          string `json:"state"           form:"state"           validate:"max=20"`
	Country        string `json:"country"         form:"country"         validate:"max=20"`
}

type Dashboard struct {
	OrdersCount int64               `json:"orders_count"`
	Account     *models.Account     `json:"account"`
	Profile     *models.UserProfile `json:"profile"`
}

type OrderDetail struct {
	Order    *models.Order         `json:"order"`
	Lines    []models.OrderProduct `json:"order_detail"`
	SubTotal float64               `json:"subtotal"`
}

type ProductPage struct {
	Products []models.Product `json:"products"`
	Count    int64            `json:"product_count"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
}

type ProductDetail struct {
	Product          *models.Product         `json:"single_product"`
	InCart           bool                    `json:"in_cart"`
	IsOrderedProduct *bool                   `json:"is_ordered_product"`
	Reviews          []models.ReviewRating   `json:"reviews"`
	Gallery          []models.ProductGallery `json:"product_gallery"`
}

type SortRequest struct {
	MinPrice float64 `query:"min_price" validate:"gte=0"`
	MaxPrice float64 `query:"max_price" validate:"gte=0"`
}

type ReviewRequest struct {
	Subject string  `json:"subject" form:"subject" validate:"max=100"`
	Review  string  `json:"review"  form:"review"  validate:"max=500"`
	Rating  float64 `json:"rating"  form:"rating"  validate:"gte=0,lte=5"`
}

type ReviewResponse struct {
	Review  *models.ReviewRating `json:"review"`
	Created bool                 `json:"created"`
	Message string               `json:"message"`
}

type AddToCartRequest struct {
	ProductID    uint   `json:"product_id"    form:"product_id"    validate:"required"`
	VariationIDs []uint `json:"variation_ids" form:"variation_ids"`
	Quantity     uint   `json:"quantity"      form:"quantity"      validate:"omitempty,min=1,max=100"`
}

type CartView struct {
	Items    []models.CartItem `json:"cart_items"`
	Total    float64           `json:"total"`
	Quantity uint              `json:"quantity"`
}

type RemoveOneFromCartResponse struct {
	ItemID   uint `json:"item_id"`
	Deleted  bool `json:"deleted"`
	Quantity uint `json:"quantity"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
