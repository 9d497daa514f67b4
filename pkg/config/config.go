package config

type CheckoutConfig struct {
	// 数据库连接，为空时由宿主系统自行提供存储
	DatabaseDSN string `cfg:"DATABASE_DSN"`

	// 对外基础URL，用于拼接回跳地址
	BaseURL string `cfg:"BASE_URL"`

	// 支付网关配置
	PayPal struct {
		Username     string `cfg:"USERNAME"` // NVP API 凭证
		Password     string `cfg:"PASSWORD"`
		Signature    string `cfg:"SIGNATURE"`
		ClientID     string `cfg:"CLIENT_ID"` // REST 凭证
		ClientSecret string `cfg:"CLIENT_SECRET"`
		Sandbox      bool   `cfg:"SANDBOX" default:"true"`
	} `cfg:"PAYPAL"`

	// 支付完成事件通知配置
	Notify struct {
		Enabled      bool   `cfg:"ENABLED" default:"false"`
		SQSQueueURL  string `cfg:"SQS_QUEUE_URL"`
		AWSRegion    string `cfg:"AWS_REGION"`
		AWSAccessKey string `cfg:"AWS_ACCESS_KEY"`
		AWSSecret    string `cfg:"AWS_SECRET"`
	} `cfg:"NOTIFY"`
}

var Config *CheckoutConfig
