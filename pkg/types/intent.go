package types

import (
	"errors"

	"github.com/shopspring/decimal"
)

// BillingPeriod 循环扣款周期单位
type BillingPeriod string

const (
	BillingPeriodDay       BillingPeriod = "Day"
	BillingPeriodWeek      BillingPeriod = "Week"
	BillingPeriodSemiMonth BillingPeriod = "SemiMonth"
	BillingPeriodMonth     BillingPeriod = "Month"
	BillingPeriodYear      BillingPeriod = "Year"
)

// FailedInitAmountAction 首次扣款失败时的处理方式
type FailedInitAmountAction string

const (
	ContinueOnFailure FailedInitAmountAction = "ContinueOnFailure"
	CancelOnFailure   FailedInitAmountAction = "CancelOnFailure"
)

var (
	ErrIntentAmountMissing = errors.New("purchase intent amount must be positive")
	ErrIntentURLMissing    = errors.New("purchase intent requires return and cancel URLs")
)

// PurchaseIntent 购买意图 - 描述一次结账要收取的内容
// 单次购买只需要 Amount；循环扣款需要 BillingPeriod / BillingFrequency /
// ProfileStartDate 等字段。构造后不可变，express 流程通过
// WithExpressSession 派生副本而不是原地修改。
type PurchaseIntent struct {
	// 单次购买
	Amount     decimal.Decimal `json:"amt"`
	Currency   string          `json:"currencycode"` // 默认 USD
	Custom     string          `json:"custom"`
	InvoiceNum string          `json:"invnum"`

	// express 流程回跳地址
	ReturnURL string `json:"returnurl"`
	CancelURL string `json:"cancelurl"`

	Description string `json:"desc"`

	// 循环扣款
	BillingPeriod           BillingPeriod          `json:"billingperiod"`
	BillingFrequency        int                    `json:"billingfrequency"`
	ProfileStartDate        string                 `json:"profilestartdate"` // "2008-08-05T17:00:00Z" UTC
	TrialBillingPeriod      BillingPeriod          `json:"trialbillingperiod"`
	TrialBillingFrequency   int                    `json:"trialbillingfrequency"`
	TrialAmount             decimal.Decimal        `json:"trialamt"`
	TrialTotalBillingCycles int                    `json:"trialtotalbillingcycles"`
	InitialAmount           decimal.Decimal        `json:"initamt"`
	MaxFailedPayments       int                    `json:"maxfailedpayments"`
	FailedInitAmountAction  FailedInitAmountAction `json:"failedinitamtaction"`
	AutoBillOutstanding     bool                   `json:"autobilloutamt"`
	SubscriberName          string                 `json:"subscribername"`
	ProfileReference        string                 `json:"profilereference"`
	TaxAmount               decimal.Decimal        `json:"taxamt"`

	// express 会话对，由 WithExpressSession 填充
	Session ExpressSession `json:"-"`
}

// ExpressSession express 流程的令牌对，由网关签发并经客户端往返传递
type ExpressSession struct {
	Token   string `json:"token"`
	PayerID string `json:"payerid"`
}

// Present 令牌对是否完整
func (s ExpressSession) Present() bool {
	return s.Token != "" && s.PayerID != ""
}

// Recurring 是否为循环扣款意图
func (p *PurchaseIntent) Recurring() bool {
	return p.BillingPeriod != ""
}

// CurrencyCode 货币代码，未设置时为 USD
func (p *PurchaseIntent) CurrencyCode() string {
	if p.Currency == "" {
		return "USD"
	}
	return p.Currency
}

// AmountCents 金额（分），用于持久化
func (p *PurchaseIntent) AmountCents() int64 {
	return p.Amount.Mul(decimal.NewFromInt(100)).IntPart()
}

// Validate 校验意图是否足以发起结账
func (p *PurchaseIntent) Validate() error {
	if !p.Amount.IsPositive() {
		return ErrIntentAmountMissing
	}
	if p.ReturnURL == "" || p.CancelURL == "" {
		return ErrIntentURLMissing
	}
	return nil
}

// WithExpressSession 派生携带 express 会话对的新意图，不修改原值
func (p *PurchaseIntent) WithExpressSession(token, payerID string) *PurchaseIntent {
	augmented := *p
	augmented.Session = ExpressSession{Token: token, PayerID: payerID}
	return &augmented
}
