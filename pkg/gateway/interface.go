package gateway

import (
	"context"

	"github.com/flaboy/aira-checkout/pkg/types"
)

// DirectPaymentParams 站内直接支付所需的卡信息和请求环境
// 卡字段由表单层收集，IPAddress 取自入站请求
type DirectPaymentParams struct {
	FirstName   string
	LastName    string
	CardType    string
	CardNumber  string
	ExpMonth    int
	ExpYear     int
	CVV2        string
	Street      string
	City        string
	State       string
	Zip         string
	CountryCode string
	IPAddress   string
}

// PaymentGateway 支付网关渠道接口
// 所有操作只通过响应中的确认字段表达成败，传输层错误由实现折算为失败响应
type PaymentGateway interface {
	// 发起express结账，成功响应携带TOKEN
	SetExpressCheckout(ctx context.Context, intent *types.PurchaseIntent) (Response, error)

	// 完成express支付，intent需携带会话令牌对
	DoExpressCheckoutPayment(ctx context.Context, intent *types.PurchaseIntent) (Response, error)

	// 站内直接支付
	DoDirectPayment(ctx context.Context, intent *types.PurchaseIntent, params *DirectPaymentParams) (Response, error)

	// 创建循环扣款档案
	CreateRecurringPaymentsProfile(ctx context.Context, intent *types.PurchaseIntent, params *DirectPaymentParams) (Response, error)

	// 用户授权页地址，express重定向的目标端点
	ExpressCheckoutURL() string

	// 资源初始化
	Init() error

	// 获取渠道名称
	GetChannelName() string
}

var gatewayChannels map[string]PaymentGateway

// Register 注册网关渠道，重复注册视为编程错误
func Register(gw PaymentGateway) {
	if gatewayChannels == nil {
		gatewayChannels = make(map[string]PaymentGateway)
	}
	name := gw.GetChannelName()
	if _, exists := gatewayChannels[name]; exists {
		panic("gateway channel already registered: " + name)
	}
	gatewayChannels[name] = gw
}

// Get 按名称获取网关渠道
func Get(channel string) PaymentGateway {
	return gatewayChannels[channel]
}

// Init 初始化所有已注册渠道
func Init() error {
	for _, channel := range gatewayChannels {
		if err := channel.Init(); err != nil {
			return err
		}
	}
	return nil
}

// GetAvailableChannels 获取所有可用的网关渠道
func GetAvailableChannels() []string {
	channels := make([]string, 0, len(gatewayChannels))
	for name := range gatewayChannels {
		channels = append(channels, name)
	}
	return channels
}
