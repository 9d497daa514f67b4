package commence

import (
	"log/slog"

	"github.com/flaboy/aira-checkout/pkg/config"
	"github.com/flaboy/aira-checkout/pkg/database"
	"github.com/flaboy/aira-checkout/pkg/events"
	"github.com/flaboy/aira-checkout/pkg/gateway"
	"github.com/flaboy/aira-checkout/pkg/gateway/nvp"
	"github.com/flaboy/aira-checkout/pkg/gateway/rest"
	"github.com/flaboy/aira-checkout/pkg/notify"
)

func Start(cfg *config.CheckoutConfig) error {
	config.Config = cfg

	// 为空时由宿主系统通过 database.SetDatabase 注入连接
	if cfg.DatabaseDSN != "" {
		if err := database.Open(cfg.DatabaseDSN); err != nil {
			return err
		}
	}

	// 注册网关渠道：NVP始终可用，REST仅在配置了凭证时启用
	gateway.Register(&nvp.NVP{})
	if cfg.PayPal.ClientID != "" {
		gateway.Register(&rest.REST{})
	}
	if err := gateway.Init(); err != nil {
		return err
	}

	// 配置了队列时安装SQS事件桥接
	if cfg.Notify.Enabled {
		notifier, err := notify.NewSQSNotifier()
		if err != nil {
			return err
		}
		events.SetPaymentHandler(notifier)
		slog.Info("payment completed notifications enabled", "queue", cfg.Notify.SQSQueueURL)
	}

	return nil
}

// RegisterPaymentHandler 注册业务系统的支付事件处理器
func RegisterPaymentHandler(handler events.PaymentHandler) {
	events.SetPaymentHandler(handler)
}
