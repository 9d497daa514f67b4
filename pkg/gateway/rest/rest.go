package rest

import (
	"context"
	"log"

	"github.com/flaboy/aira-checkout/pkg/config"
	"github.com/flaboy/aira-checkout/pkg/gateway"
	"github.com/flaboy/aira-checkout/pkg/types"
	"github.com/plutov/paypal/v4"
)

const (
	checkoutEndpoint        = "https://www.paypal.com/checkoutnow"
	sandboxCheckoutEndpoint = "https://www.sandbox.paypal.com/checkoutnow"
)

// REST 基于Orders API的网关渠道，只支持express流程
// 站内直接支付和循环扣款在REST渠道下不可用，返回失败响应
type REST struct {
	client          *paypal.Client
	expressEndpoint string
}

// Init 初始化REST客户端
func (r *REST) Init() error {
	cfg := config.Config.PayPal

	// 根据配置选择环境
	environment := paypal.APIBaseLive
	r.expressEndpoint = checkoutEndpoint
	if cfg.Sandbox {
		environment = paypal.APIBaseSandBox
		r.expressEndpoint = sandboxCheckoutEndpoint
	}

	client, err := paypal.NewClient(cfg.ClientID, cfg.ClientSecret, environment)
	if err != nil {
		return err
	}

	// 获取访问令牌
	_, err = client.GetAccessToken(context.Background())
	if err != nil {
		return err
	}

	r.client = client
	log.Printf("REST gateway channel initialized successfully")
	return nil
}

// GetChannelName 获取渠道名称
func (r *REST) GetChannelName() string {
	return "rest"
}

// ExpressCheckoutURL 用户授权页端点
func (r *REST) ExpressCheckoutURL() string {
	return r.expressEndpoint
}

// SetExpressCheckout 创建订单，订单ID即express令牌
func (r *REST) SetExpressCheckout(ctx context.Context, intent *types.PurchaseIntent) (gateway.Response, error) {
	purchaseUnits := []paypal.PurchaseUnitRequest{
		{
			Amount: &paypal.PurchaseUnitAmount{
				Currency: intent.CurrencyCode(),
				Value:    intent.Amount.StringFixed(2),
			},
			Description: intent.Description,
		},
	}

	applicationContext := &paypal.ApplicationContext{
		ReturnURL: intent.ReturnURL,
		CancelURL: intent.CancelURL,
	}

	order, err := r.client.CreateOrder(ctx, "CAPTURE", purchaseUnits, nil, applicationContext)
	if err != nil {
		log.Printf("REST CreateOrder failed: %v", err)
		return gateway.Failed(err.Error()), nil
	}

	return gateway.Response{
		gateway.FieldAck:           gateway.AckSuccess,
		gateway.FieldToken:         order.ID,
		gateway.FieldCorrelationID: order.ID,
	}, nil
}

// DoExpressCheckoutPayment 捕获订单完成支付
func (r *REST) DoExpressCheckoutPayment(ctx context.Context, intent *types.PurchaseIntent) (gateway.Response, error) {
	capture, err := r.client.CaptureOrder(ctx, intent.Session.Token, paypal.CaptureOrderRequest{})
	if err != nil {
		log.Printf("REST CaptureOrder failed: %v", err)
		return gateway.Failed(err.Error()), nil
	}

	if capture.Status != "COMPLETED" {
		log.Printf("REST capture not completed, status: %s", capture.Status)
		return gateway.Failed("capture status: " + capture.Status), nil
	}

	return gateway.Response{
		gateway.FieldAck:           gateway.AckSuccess,
		gateway.FieldToken:         intent.Session.Token,
		gateway.FieldTransactionID: capture.ID,
		gateway.FieldCorrelationID: capture.ID,
	}, nil
}

// DoDirectPayment REST渠道不支持站内直接支付
func (r *REST) DoDirectPayment(ctx context.Context, intent *types.PurchaseIntent, params *gateway.DirectPaymentParams) (gateway.Response, error) {
	return gateway.Failed("direct payment is not supported by the rest channel"), nil
}

// CreateRecurringPaymentsProfile REST渠道不支持循环扣款档案
func (r *REST) CreateRecurringPaymentsProfile(ctx context.Context, intent *types.PurchaseIntent, params *gateway.DirectPaymentParams) (gateway.Response, error) {
	return gateway.Failed("recurring profiles are not supported by the rest channel"), nil
}
