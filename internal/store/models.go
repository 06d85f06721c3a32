package store

import "time"

// User roles. The shop owner reads every conversation; customers only
// their own.
const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Profile struct {
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Address struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Street     string    `json:"street"`
	City       string    `json:"city"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
}

// Order is created exactly once per completed payment session and never
// mutated afterwards.
type Order struct {
	ID                 string      `json:"id"`
	UserID             string      `json:"user_id"`
	StripeSessionID    string      `json:"stripe_session_id"`
	AmountTotal        float64     `json:"amount_total"`
	Status             string      `json:"status"`
	CustomerIPAddress  string      `json:"customer_ip_address,omitempty"`
	ShippingStreet     string      `json:"shipping_street"`
	ShippingCity       string      `json:"shipping_city"`
	ShippingPostalCode string      `json:"shipping_postal_code"`
	ShippingCountry    string      `json:"shipping_country"`
	IsGift             bool        `json:"is_gift"`
	CreatedAt          time.Time   `json:"created_at"`
	Items              []OrderItem `json:"items,omitempty"`
}

// OrderItem snapshots the charged line: the product name is free text, not
// a live catalog reference.
type OrderItem struct {
	ID          string  `json:"id"`
	OrderID     string  `json:"order_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}
