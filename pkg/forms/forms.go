package forms

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/flaboy/aira-checkout/pkg/gateway"
	"github.com/flaboy/aira-checkout/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

var validate = validator.New()

// PaymentForm 站内直接支付表单
// 字段名与提交的表单键一致（小写）
type PaymentForm struct {
	FirstName   string `validate:"required"`
	LastName    string `validate:"required"`
	CardType    string `validate:"required,oneof=Visa MasterCard Discover Amex"`
	CardNumber  string `validate:"required,credit_card"`
	ExpMonth    int    `validate:"required,min=1,max=12"`
	ExpYear     int    `validate:"required,min=2000"`
	CVV2        string `validate:"required,min=3,max=4"`
	Street      string `validate:"required"`
	City        string `validate:"required"`
	State       string `validate:"required"`
	Zip         string `validate:"required"`
	CountryCode string `validate:"required,len=2"`

	bound  url.Values
	errors []string
}

// NewPaymentForm 创建空支付表单
func NewPaymentForm() *PaymentForm {
	return &PaymentForm{bound: url.Values{}}
}

// Bind 从提交的表单值填充字段
func (f *PaymentForm) Bind(form url.Values) {
	f.bound = form
	f.FirstName = form.Get("firstname")
	f.LastName = form.Get("lastname")
	f.CardType = form.Get("cardtype")
	f.CardNumber = strings.ReplaceAll(form.Get("acct"), " ", "")
	f.ExpMonth = cast.ToInt(form.Get("expmonth"))
	f.ExpYear = cast.ToInt(form.Get("expyear"))
	f.CVV2 = form.Get("cvv2")
	f.Street = form.Get("street")
	f.City = form.Get("city")
	f.State = form.Get("state")
	f.Zip = form.Get("zip")
	f.CountryCode = strings.ToUpper(form.Get("countrycode"))
}

// Validate 校验表单，失败时错误文案可通过ErrorText获取
func (f *PaymentForm) Validate() error {
	f.errors = nil
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrors {
			f.errors = append(f.errors, fmt.Sprintf("%s: failed %s validation", fe.Field(), fe.Tag()))
		}
	} else {
		f.errors = append(f.errors, err.Error())
	}
	return err
}

// ErrorText 校验错误的可读摘要
func (f *PaymentForm) ErrorText() string {
	return strings.Join(f.errors, "; ")
}

// Fields 提交的原始值，重新渲染表单时回显
// 卡号和CVV2不回显
func (f *PaymentForm) Fields() url.Values {
	echoed := url.Values{}
	for key, values := range f.bound {
		switch strings.ToLower(key) {
		case "acct", "cvv2":
			continue
		}
		if len(values) > 0 {
			echoed.Set(key, values[0])
		}
	}
	return echoed
}

// BuildRecord 从表单构造未持久化的支付记录，卡信息走进程内参数
func (f *PaymentForm) BuildRecord() *models.PaymentRecord {
	record := &models.PaymentRecord{
		Status:      models.PaymentStatusPending,
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Street:      f.Street,
		City:        f.City,
		State:       f.State,
		Zip:         f.Zip,
		CountryCode: f.CountryCode,
	}
	record.SetDirectParams(&gateway.DirectPaymentParams{
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		CardType:    f.CardType,
		CardNumber:  f.CardNumber,
		ExpMonth:    f.ExpMonth,
		ExpYear:     f.ExpYear,
		CVV2:        f.CVV2,
		Street:      f.Street,
		City:        f.City,
		State:       f.State,
		Zip:         f.Zip,
		CountryCode: f.CountryCode,
	})
	return record
}

// ConfirmForm express流程确认表单，预填令牌对
type ConfirmForm struct {
	Token   string `validate:"required"`
	PayerID string `validate:"required"`
}

// Bind 从提交的表单值填充令牌对
func (f *ConfirmForm) Bind(form url.Values) {
	f.Token = form.Get("token")
	f.PayerID = form.Get("PayerID")
}

// Validate 校验令牌对是否完整
func (f *ConfirmForm) Validate() error {
	return validate.Struct(f)
}

// Fields 令牌对的表单值，渲染确认页时预填
func (f *ConfirmForm) Fields() url.Values {
	fields := url.Values{}
	fields.Set("token", f.Token)
	fields.Set("PayerID", f.PayerID)
	return fields
}
