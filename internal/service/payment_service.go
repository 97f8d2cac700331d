package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"devforge/backend/internal/models"

	"gorm.io/gorm"
)

var ErrInvalidSignature = errors.New("payment signature mismatch")

// PaymentConfig carries the gateway credentials
type PaymentConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

// PaymentService creates gateway orders and verifies payment callbacks
type PaymentService struct {
	db         *gorm.DB
	config     PaymentConfig
	httpClient *http.Client
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, config PaymentConfig) *PaymentService {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.razorpay.com/v1"
	}
	return &PaymentService{
		db:         db,
		config:     config,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Order is the subset of the gateway's order object the client needs
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CreateOrder registers an order with the gateway. Amount is in subunits.
func (s *PaymentService) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*Order, error) {
	body, err := json.Marshal(map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(s.config.KeyID, s.config.KeySecret)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(payload))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return &order, nil
}

// Verify checks the gateway's HMAC-SHA256 signature over
// "orderID|paymentID" and persists the payment when it matches.
func (s *PaymentService) Verify(ctx context.Context, userID uint, req *models.VerifyPaymentRequest) error {
	if !s.signatureValid(req.OrderID, req.PaymentID, req.Signature) {
		return ErrInvalidSignature
	}

	payment := models.Payment{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Amount:    req.Amount,
		Currency:  req.Currency,
		PlanID:    req.PlanID,
		Status:    "paid",
		UserID:    userID,
	}

	return s.db.WithContext(ctx).Create(&payment).Error
}

func (s *PaymentService) signatureValid(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.config.KeySecret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
