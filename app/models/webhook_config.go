package models

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// WebhookConfig holds the webhook credentials for one inbound messaging
// account of a tenant. AppSecret keys the delivery HMAC and is never
// serialized; the verify token used during the subscription handshake is
// stored one-way hashed. Create/rotate/disable operations belong to the
// admin surface, this service only reads the rows.
type WebhookConfig struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TenantID        uint      `gorm:"not null;index:ux_webhook_configs_tenant_account,unique,priority:1" json:"tenant_id"`
	AccountID       string    `gorm:"type:varchar(64);not null;index:ux_webhook_configs_tenant_account,unique,priority:2;index" json:"account_id" validate:"required,max=64"`
	CallbackPath    string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"callback_path" validate:"required"`
	VerifyTokenHash string    `gorm:"type:varchar(100);not null" json:"-"`
	AppSecret       string    `gorm:"type:varchar(191);not null" json:"-"`
	Active          bool      `gorm:"default:true;index" json:"active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *WebhookConfig) Validate() error {
	v := validator.New()

	return v.Struct(c)
}

// NewWebhookConfig hashes the verify token and assigns a random callback
// path. The plaintext verify token is returned to the caller exactly once
// and is not recoverable afterwards.
func NewWebhookConfig(tenantID uint, accountID, verifyToken, appSecret string) (*WebhookConfig, error) {
	hash, err := HashVerifyToken(verifyToken)
	if err != nil {
		return nil, err
	}

	path, err := GenerateCallbackPath()
	if err != nil {
		return nil, err
	}

	c := &WebhookConfig{
		TenantID:        tenantID,
		AccountID:       strings.TrimSpace(accountID),
		CallbackPath:    path,
		VerifyTokenHash: hash,
		AppSecret:       appSecret,
		Active:          true,
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// HashVerifyToken one-way hashes a subscription verify token.
func HashVerifyToken(token string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(token)), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckVerifyToken compares a handshake token against the stored hash.
func (c *WebhookConfig) CheckVerifyToken(token string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(c.VerifyTokenHash), []byte(strings.TrimSpace(token)))

	return err == nil
}

// GenerateCallbackPath returns a random URL-safe path segment for the
// per-account webhook endpoint.
func GenerateCallbackPath() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
