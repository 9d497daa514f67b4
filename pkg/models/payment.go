package models

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/flaboy/aira-checkout/pkg/database"
	"github.com/flaboy/aira-checkout/pkg/gateway"
	"github.com/flaboy/aira-checkout/pkg/types"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// PaymentRecord 一次支付尝试的结果记录
// 每次提交都会持久化一条，无论校验或网关处理是否成功
type PaymentRecord struct {
	ID      uint   `gorm:"primaryKey"`
	Channel string `gorm:"size:50"` // 网关渠道：nvp, rest等
	Flow    string `gorm:"size:20"` // direct / express

	Amount    int64  `gorm:"not null"` // 金额（分）
	Currency  string `gorm:"size:10;default:'USD'"`
	Recurring bool
	Status    string `gorm:"size:20"` // pending, completed, failed

	// 失败标记，附带可读原因
	Flag     bool
	FlagCode string `gorm:"size:50"`
	FlagInfo string `gorm:"type:text"`

	// 请求环境
	IPAddress string `gorm:"size:64"`
	QueryDump string `gorm:"type:text"`

	// 网关响应摘要
	ResponseAck   string `gorm:"size:30"`
	CorrelationID string `gorm:"size:100"`
	TransactionID string `gorm:"size:100"`
	ExpressToken  string `gorm:"size:100"`
	PayerID       string `gorm:"size:100"`

	// 付款人信息（来自表单，卡数据不落库）
	FirstName   string `gorm:"size:100"`
	LastName    string `gorm:"size:100"`
	Street      string `gorm:"size:200"`
	City        string `gorm:"size:100"`
	State       string `gorm:"size:100"`
	Zip         string `gorm:"size:20"`
	CountryCode string `gorm:"size:10"`

	// 业务上下文 - 由业务系统提供和解析
	BusinessContext string `gorm:"type:text"`

	// 时间戳
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time

	// 卡信息只在进程内传递
	directParams *gateway.DirectPaymentParams `gorm:"-"`
}

func (p *PaymentRecord) TableName() string {
	return "ac_payments"
}

func init() {
	database.RegisterAutoMigrateModels(&PaymentRecord{})
}

// HashID 对外暴露的支付ID
func (p *PaymentRecord) HashID() string {
	return EncodePaymentID(p.ID)
}

// SetFlag 标记本次支付失败并记录原因
func (p *PaymentRecord) SetFlag(info string) {
	p.SetFlagWithCode("", info)
}

// SetFlagWithCode 标记失败并附带错误代码
func (p *PaymentRecord) SetFlagWithCode(code, info string) {
	p.Flag = true
	p.FlagCode = code
	p.FlagInfo = info
	p.Status = PaymentStatusFailed
}

// InitFromRequest 从入站请求补充环境信息
func (p *PaymentRecord) InitFromRequest(req *types.Request) {
	p.IPAddress = req.RemoteIP
	if p.Status == "" {
		p.Status = PaymentStatusPending
	}
	dump := req.Query.Encode()
	if req.IsWrite() {
		dump = redactForm(req.Form)
	}
	p.QueryDump = dump
}

// SetDirectParams 注入卡信息，仅在进程内传递给网关
func (p *PaymentRecord) SetDirectParams(params *gateway.DirectPaymentParams) {
	p.directParams = params
}

// Process 用购买意图向网关发起处理，返回是否成功
// 循环扣款意图走档案创建，其余走直接支付；失败时打标记
func (p *PaymentRecord) Process(ctx context.Context, gw gateway.PaymentGateway, req *types.Request, intent *types.PurchaseIntent) bool {
	p.Channel = gw.GetChannelName()
	p.Amount = intent.AmountCents()
	p.Currency = intent.CurrencyCode()
	p.Recurring = intent.Recurring()

	params := p.directParams
	if params != nil && params.IPAddress == "" {
		params.IPAddress = req.RemoteIP
	}

	var response gateway.Response
	var err error
	if intent.Recurring() {
		response, err = gw.CreateRecurringPaymentsProfile(ctx, intent, params)
	} else {
		response, err = gw.DoDirectPayment(ctx, intent, params)
	}
	if err != nil {
		log.Printf("payment %d gateway call failed: %v", p.ID, err)
		response = gateway.Failed(err.Error())
	}

	p.ResponseAck = response.Ack()
	p.CorrelationID = response.CorrelationID()
	p.TransactionID = response.TransactionID()

	if !response.Success() {
		p.SetFlagWithCode("gateway_rejected", response.ErrorMessage())
		return false
	}

	p.Status = PaymentStatusCompleted
	now := time.Now()
	p.CompletedAt = &now
	return true
}

// redactForm 序列化表单用于排查，剔除卡相关字段
func redactForm(form map[string][]string) string {
	parts := make([]string, 0, len(form))
	for key, values := range form {
		switch strings.ToLower(key) {
		case "acct", "cardnumber", "cvv2":
			continue
		}
		if len(values) > 0 {
			parts = append(parts, key+"="+values[0])
		}
	}
	return strings.Join(parts, "&")
}
