package nvp

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/flaboy/aira-checkout/pkg/config"
	"github.com/flaboy/aira-checkout/pkg/gateway"
	"github.com/flaboy/aira-checkout/pkg/types"
	"github.com/valyala/fasthttp"
)

const (
	apiEndpoint        = "https://api-3t.paypal.com/nvp"
	sandboxAPIEndpoint = "https://api-3t.sandbox.paypal.com/nvp"

	expressEndpoint        = "https://www.paypal.com/webscr?cmd=_express-checkout"
	sandboxExpressEndpoint = "https://www.sandbox.paypal.com/webscr?cmd=_express-checkout"

	apiVersion = "116.0"
)

// NVP 经典NVP协议网关渠道
type NVP struct {
	endpoint        string
	expressEndpoint string
	user            string
	password        string
	signature       string
}

// Init 初始化NVP客户端
func (n *NVP) Init() error {
	cfg := config.Config.PayPal
	if cfg.Username == "" || cfg.Password == "" || cfg.Signature == "" {
		return fmt.Errorf("nvp gateway requires username, password and signature")
	}

	n.user = cfg.Username
	n.password = cfg.Password
	n.signature = cfg.Signature

	// 根据配置选择环境
	if cfg.Sandbox {
		n.endpoint = sandboxAPIEndpoint
		n.expressEndpoint = sandboxExpressEndpoint
	} else {
		n.endpoint = apiEndpoint
		n.expressEndpoint = expressEndpoint
	}

	log.Printf("NVP gateway channel initialized, endpoint: %s", n.endpoint)
	return nil
}

// GetChannelName 获取渠道名称
func (n *NVP) GetChannelName() string {
	return "nvp"
}

// ExpressCheckoutURL 用户授权页端点，与API环境保持同一选择
func (n *NVP) ExpressCheckoutURL() string {
	return n.expressEndpoint
}

// SetExpressCheckout 发起express结账，成功响应携带TOKEN
func (n *NVP) SetExpressCheckout(ctx context.Context, intent *types.PurchaseIntent) (gateway.Response, error) {
	params := url.Values{}
	params.Set("AMT", intent.Amount.StringFixed(2))
	params.Set("CURRENCYCODE", intent.CurrencyCode())
	params.Set("RETURNURL", intent.ReturnURL)
	params.Set("CANCELURL", intent.CancelURL)
	params.Set("NOSHIPPING", "1")
	if intent.Recurring() {
		params.Set("L_BILLINGTYPE0", "RecurringPayments")
		params.Set("L_BILLINGAGREEMENTDESCRIPTION0", intent.Description)
	}
	return n.call(ctx, "SetExpressCheckout", params)
}

// DoExpressCheckoutPayment 完成express支付，意图需携带会话令牌对
func (n *NVP) DoExpressCheckoutPayment(ctx context.Context, intent *types.PurchaseIntent) (gateway.Response, error) {
	params := url.Values{}
	params.Set("TOKEN", intent.Session.Token)
	params.Set("PAYERID", intent.Session.PayerID)
	params.Set("AMT", intent.Amount.StringFixed(2))
	params.Set("CURRENCYCODE", intent.CurrencyCode())
	params.Set("PAYMENTACTION", "Sale")
	return n.call(ctx, "DoExpressCheckoutPayment", params)
}

// DoDirectPayment 站内直接支付
func (n *NVP) DoDirectPayment(ctx context.Context, intent *types.PurchaseIntent, p *gateway.DirectPaymentParams) (gateway.Response, error) {
	params := url.Values{}
	params.Set("PAYMENTACTION", "Sale")
	params.Set("AMT", intent.Amount.StringFixed(2))
	params.Set("CURRENCYCODE", intent.CurrencyCode())
	if intent.InvoiceNum != "" {
		params.Set("INVNUM", intent.InvoiceNum)
	}
	if intent.Custom != "" {
		params.Set("CUSTOM", intent.Custom)
	}
	setCardParams(params, p)
	return n.call(ctx, "DoDirectPayment", params)
}

// CreateRecurringPaymentsProfile 创建循环扣款档案
func (n *NVP) CreateRecurringPaymentsProfile(ctx context.Context, intent *types.PurchaseIntent, p *gateway.DirectPaymentParams) (gateway.Response, error) {
	params := url.Values{}
	params.Set("AMT", intent.Amount.StringFixed(2))
	params.Set("CURRENCYCODE", intent.CurrencyCode())
	params.Set("DESC", intent.Description)
	params.Set("BILLINGPERIOD", string(intent.BillingPeriod))
	params.Set("BILLINGFREQUENCY", fmt.Sprintf("%d", intent.BillingFrequency))
	params.Set("PROFILESTARTDATE", intent.ProfileStartDate)
	if intent.TrialBillingPeriod != "" {
		params.Set("TRIALBILLINGPERIOD", string(intent.TrialBillingPeriod))
		params.Set("TRIALBILLINGFREQUENCY", fmt.Sprintf("%d", intent.TrialBillingFrequency))
		params.Set("TRIALAMT", intent.TrialAmount.StringFixed(2))
		params.Set("TRIALTOTALBILLINGCYCLES", fmt.Sprintf("%d", intent.TrialTotalBillingCycles))
	}
	if intent.InitialAmount.IsPositive() {
		params.Set("INITAMT", intent.InitialAmount.StringFixed(2))
	}
	if intent.FailedInitAmountAction != "" {
		params.Set("FAILEDINITAMTACTION", string(intent.FailedInitAmountAction))
	}
	if intent.MaxFailedPayments > 0 {
		params.Set("MAXFAILEDPAYMENTS", fmt.Sprintf("%d", intent.MaxFailedPayments))
	}
	if intent.AutoBillOutstanding {
		params.Set("AUTOBILLOUTAMT", "AddToNextBilling")
	}
	if intent.SubscriberName != "" {
		params.Set("SUBSCRIBERNAME", intent.SubscriberName)
	}
	if intent.ProfileReference != "" {
		params.Set("PROFILEREFERENCE", intent.ProfileReference)
	}
	if intent.TaxAmount.IsPositive() {
		params.Set("TAXAMT", intent.TaxAmount.StringFixed(2))
	}
	setCardParams(params, p)
	return n.call(ctx, "CreateRecurringPaymentsProfile", params)
}

func setCardParams(params url.Values, p *gateway.DirectPaymentParams) {
	if p == nil {
		return
	}
	params.Set("CREDITCARDTYPE", p.CardType)
	params.Set("ACCT", p.CardNumber)
	params.Set("EXPDATE", fmt.Sprintf("%02d%04d", p.ExpMonth, p.ExpYear))
	params.Set("CVV2", p.CVV2)
	params.Set("FIRSTNAME", p.FirstName)
	params.Set("LASTNAME", p.LastName)
	params.Set("STREET", p.Street)
	params.Set("CITY", p.City)
	params.Set("STATE", p.State)
	params.Set("ZIP", p.Zip)
	params.Set("COUNTRYCODE", p.CountryCode)
	params.Set("IPADDRESS", p.IPAddress)
}

// call 发送一次NVP请求并解析响应
// 传输层错误折算为失败响应，编排层只看确认字段
func (n *NVP) call(ctx context.Context, method string, params url.Values) (gateway.Response, error) {
	params.Set("METHOD", method)
	params.Set("VERSION", apiVersion)
	params.Set("USER", n.user)
	params.Set("PWD", n.password)
	params.Set("SIGNATURE", n.signature)

	// 创建 fasthttp 请求
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(n.endpoint)
	req.Header.SetMethod("POST")
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.SetBodyString(params.Encode())

	if err := fasthttp.Do(req, resp); err != nil {
		log.Printf("NVP %s transport error: %v", method, err)
		return gateway.Failed(err.Error()), nil
	}

	if resp.StatusCode() != 200 {
		log.Printf("NVP %s unexpected status code: %d", method, resp.StatusCode())
		return gateway.Failed(fmt.Sprintf("unexpected status code %d", resp.StatusCode())), nil
	}

	response, err := ParseResponse(string(resp.Body()))
	if err != nil {
		log.Printf("NVP %s malformed response: %v", method, err)
		return gateway.Failed("malformed gateway response"), nil
	}
	return response, nil
}

// ParseResponse 解析NVP响应体（查询串编码的键值对）
func ParseResponse(body string) (gateway.Response, error) {
	values, err := url.ParseQuery(body)
	if err != nil {
		return nil, err
	}
	response := make(gateway.Response, len(values))
	for key := range values {
		response[strings.ToUpper(key)] = values.Get(key)
	}
	return response, nil
}
