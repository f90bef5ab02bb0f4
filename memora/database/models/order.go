package models

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusEngraving OrderStatus = "engraving"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is the CRM view of a purchase: one physical item, one customer,
// at most one claim link at a time.
type Order struct {
	ID            string      `bson:"_id,omitempty" json:"id"`
	Tenant        string      `bson:"tenant" json:"tenant"`
	ChannelID     string      `bson:"channel_id" json:"channel_id"`
	CustomerName  string      `bson:"customer_name" json:"customer_name"`
	CustomerEmail string      `bson:"customer_email" json:"customer_email"`
	ProductType   string      `bson:"product_type" json:"product_type"`
	Status        OrderStatus `bson:"status" json:"status"`
	// TagSerial identifies the NFC tag engraved into the item, recorded by
	// staff when the tag is written.
	TagSerial string    `bson:"tag_serial,omitempty" json:"tag_serial,omitempty"`
	MemoryID  string    `bson:"memory_id,omitempty" json:"memory_id,omitempty"`
	ClaimKey  string    `bson:"claim_key,omitempty" json:"claim_key,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func (o *Order) ApplyDefaults() {
	if o.Status == "" {
		o.Status = OrderStatusPaid
	}
	if o.ProductType == "" {
		o.ProductType = "standard"
	}
}
