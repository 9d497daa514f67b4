package types

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentFlow 支付走的结账流程
type PaymentFlow string

const (
	PaymentFlowDirect  PaymentFlow = "direct"  // 商户站内收集卡信息
	PaymentFlowExpress PaymentFlow = "express" // 网关站完成授权后回跳确认
)

// PaymentCompletedEvent 支付完成事件，持久化成功后通知业务系统
type PaymentCompletedEvent struct {
	TX              *gorm.DB         `json:"-"`
	PaymentHashID   string           `json:"payment_hash_id"`
	Channel         string           `json:"channel"` // nvp, rest等
	Flow            PaymentFlow      `json:"flow"`
	Amount          *decimal.Decimal `json:"amount"`
	Currency        string           `json:"currency"`
	Recurring       bool             `json:"recurring"`
	CorrelationID   string           `json:"correlation_id"`
	BusinessContext json.RawMessage  `json:"business_context"`
	CompletedAt     time.Time        `json:"completed_at"`
}
