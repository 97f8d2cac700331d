package models

import (
	"time"
)

// Payment represents a verified subscription payment
type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   string    `gorm:"index" json:"order_id"`
	PaymentID string    `gorm:"uniqueIndex" json:"payment_id"`
	Signature string    `json:"-"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	PlanID    string    `json:"plan_id"`
	Status    string    `json:"status"`
	UserID    uint      `gorm:"index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateOrderRequest is the request structure for starting a payment
type CreateOrderRequest struct {
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Currency string `json:"currency" binding:"required"`
	PlanID   string `json:"planId"`
}

// VerifyPaymentRequest carries the gateway's callback fields
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	PlanID    string `json:"planId"`
}
