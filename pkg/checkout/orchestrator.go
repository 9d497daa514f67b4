package checkout

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	checkouterrors "github.com/flaboy/aira-checkout/pkg/errors"
	"github.com/flaboy/aira-checkout/pkg/events"
	"github.com/flaboy/aira-checkout/pkg/forms"
	"github.com/flaboy/aira-checkout/pkg/gateway"
	"github.com/flaboy/aira-checkout/pkg/models"
	"github.com/flaboy/aira-checkout/pkg/types"
)

// 展示给付款人的提示文案，网关侧错误细节只进日志
const (
	MsgCorrectErrors  = "Please correct the errors below and try again."
	MsgGatewayContact = "There was a problem contacting PayPal. Please try again later."
	MsgPaymentFailed  = "There was a problem processing the payment. Please check your information and try again."
)

const DefaultSuccessURL = "?success"

// PaymentForm 支付表单抽象，校验与记录构造由表单层负责
type PaymentForm interface {
	Bind(form url.Values)
	Validate() error
	ErrorText() string
	Fields() url.Values
	BuildRecord() *models.PaymentRecord
}

// ConfirmForm express确认表单抽象，承载令牌对
type ConfirmForm interface {
	Bind(form url.Values)
	Validate() error
	Fields() url.Values
}

// Options 编排器配置，New之后不可变
type Options struct {
	// 本结账上下文收取的内容，必填
	Intent *types.PurchaseIntent

	// 网关渠道名称，Gateway为空时经注册表解析；默认nvp
	Channel string

	// 直接注入网关实例，优先于Channel
	Gateway gateway.PaymentGateway

	// 支付记录存储，默认gorm实现
	Store models.RecordStore

	// 表单构造器，默认用forms包的实现
	NewPaymentForm func() PaymentForm
	NewConfirmForm func() ConfirmForm

	// 结账完成/失败后的跳转目标，FailURL为空时失败走表单重渲染
	SuccessURL string
	FailURL    string

	// 模板文本覆盖，为空时用内置模板
	PaymentTemplate string
	ConfirmTemplate string
}

// Orchestrator 结账流程编排器
// 一个实例对应一个结账上下文，构造后只读，可被并发请求共享；
// 请求级状态全部通过参数传递
type Orchestrator struct {
	intent         *types.PurchaseIntent
	gateway        gateway.PaymentGateway
	store          models.RecordStore
	newForm        func() PaymentForm
	newConfirmForm func() ConfirmForm
	successURL     string
	failURL        string
	templates      *templateSet
}

// New 创建编排器
func New(opts Options) (*Orchestrator, error) {
	if opts.Intent == nil {
		return nil, checkouterrors.ErrIntentMissing
	}
	if err := opts.Intent.Validate(); err != nil {
		return nil, checkouterrors.ErrIntentInvalid
	}

	gw := opts.Gateway
	if gw == nil {
		channel := opts.Channel
		if channel == "" {
			channel = "nvp"
		}
		gw = gateway.Get(channel)
		if gw == nil {
			return nil, checkouterrors.ErrChannelNotFound
		}
	}

	store := opts.Store
	if store == nil {
		store = models.NewStore()
	}

	newForm := opts.NewPaymentForm
	if newForm == nil {
		newForm = func() PaymentForm { return forms.NewPaymentForm() }
	}

	newConfirmForm := opts.NewConfirmForm
	if newConfirmForm == nil {
		newConfirmForm = func() ConfirmForm { return &forms.ConfirmForm{} }
	}

	successURL := opts.SuccessURL
	if successURL == "" {
		successURL = DefaultSuccessURL
	}

	templates, err := newTemplateSet(opts.PaymentTemplate, opts.ConfirmTemplate)
	if err != nil {
		return nil, checkouterrors.ErrTemplateInvalid
	}

	return &Orchestrator{
		intent:         opts.Intent,
		gateway:        gw,
		store:          store,
		newForm:        newForm,
		newConfirmForm: newConfirmForm,
		successURL:     successURL,
		failURL:        opts.FailURL,
		templates:      templates,
	}, nil
}

// Dispatch 分类入站请求并执行对应处理器，每个请求恰好执行一个
func (o *Orchestrator) Dispatch(ctx context.Context, req *types.Request) *Outcome {
	intent := Classify(req)
	slog.Debug("checkout dispatch", "intent", intent.String(), "remote_ip", req.RemoteIP)

	switch intent {
	case IntentInitiateExpress:
		return o.initiateExpress(ctx, req)
	case IntentRenderConfirm:
		return o.renderConfirm(req)
	case IntentConfirmExpress:
		return o.confirmExpress(ctx, req)
	case IntentValidatePayment:
		return o.validatePayment(ctx, req)
	default:
		return o.renderPaymentForm(nil, "")
	}
}

// renderPaymentForm 展示支付表单，纯渲染无副作用
func (o *Orchestrator) renderPaymentForm(fields url.Values, errors string) *Outcome {
	return Render(TemplatePayment, fields, errors)
}

// validatePayment 直接支付流程第二步：校验表单并请求网关扣款
// 无论校验或处理结果如何，支付记录恰好持久化一次
func (o *Orchestrator) validatePayment(ctx context.Context, req *types.Request) *Outcome {
	failed := false
	form := o.newForm()
	form.Bind(req.Form)

	var record *models.PaymentRecord
	if err := form.Validate(); err != nil {
		failed = true
		record = &models.PaymentRecord{}
		record.SetFlagWithCode("bad_form_data", "Bad form data: "+form.ErrorText())
	} else {
		record = form.BuildRecord()
	}

	record.Flow = string(types.PaymentFlowDirect)
	record.InitFromRequest(req)

	success := false
	if !failed {
		success = record.Process(ctx, o.gateway, req, o.intent)
	}

	if err := o.store.Save(record); err != nil {
		slog.Error("failed to persist payment record", "error", err, "flow", record.Flow)
	}

	if success {
		o.emitCompleted(record)
		return Redirect(o.successURL)
	}
	if o.failURL != "" {
		return Redirect(o.failURL)
	}
	return o.renderPaymentForm(form.Fields(), MsgCorrectErrors)
}

// initiateExpress express流程第一步：向网关要令牌并跳转到授权页
// 本步不持久化，只依据响应形态决定跳转或报错
func (o *Orchestrator) initiateExpress(ctx context.Context, req *types.Request) *Outcome {
	response, err := o.gateway.SetExpressCheckout(ctx, o.intent)
	if err != nil {
		slog.Error("set express checkout failed", "error", err)
		response = gateway.Failed(err.Error())
	}

	if response.Success() && response.Token() != "" {
		return Redirect(o.expressRedirectURL(response.Token()))
	}

	slog.Warn("express checkout not granted", "ack", response.Ack(), "message", response.ErrorMessage())
	return o.renderPaymentForm(nil, MsgGatewayContact)
}

// expressRedirectURL 拼接授权页跳转地址，端点取自配置选择的环境
func (o *Orchestrator) expressRedirectURL(token string) string {
	params := url.Values{}
	params.Set("token", token)
	params.Set("AMT", o.intent.Amount.StringFixed(2))
	params.Set("RETURNURL", o.intent.ReturnURL)
	params.Set("CANCELURL", o.intent.CancelURL)

	endpoint := o.gateway.ExpressCheckoutURL()
	separator := "?"
	if strings.Contains(endpoint, "?") {
		separator = "&"
	}
	return endpoint + separator + params.Encode()
}

// renderConfirm express流程第二步：预填令牌对展示确认表单，纯渲染
func (o *Orchestrator) renderConfirm(req *types.Request) *Outcome {
	form := o.newConfirmForm()
	form.Bind(req.Query)
	return Render(TemplateConfirm, form.Fields(), "")
}

// confirmExpress express流程第三步：携带令牌对完成支付
// 令牌对合并进意图副本，原意图保持不变；成败都会落一条支付记录
func (o *Orchestrator) confirmExpress(ctx context.Context, req *types.Request) *Outcome {
	form := o.newConfirmForm()
	form.Bind(req.Form)
	if err := form.Validate(); err != nil {
		slog.Warn("express confirmation with incomplete session pair", "error", err)
	}

	fields := form.Fields()
	token := fields.Get("token")
	payerID := fields.Get("PayerID")
	augmented := o.intent.WithExpressSession(token, payerID)

	response, err := o.gateway.DoExpressCheckoutPayment(ctx, augmented)
	if err != nil {
		slog.Error("do express checkout payment failed", "error", err)
		response = gateway.Failed(err.Error())
	}

	record := &models.PaymentRecord{
		Channel:       o.gateway.GetChannelName(),
		Flow:          string(types.PaymentFlowExpress),
		Amount:        o.intent.AmountCents(),
		Currency:      o.intent.CurrencyCode(),
		Recurring:     o.intent.Recurring(),
		ExpressToken:  token,
		PayerID:       payerID,
		ResponseAck:   response.Ack(),
		CorrelationID: response.CorrelationID(),
		TransactionID: response.TransactionID(),
	}
	record.InitFromRequest(req)

	success := response.Success()
	if success {
		record.Status = models.PaymentStatusCompleted
		now := time.Now()
		record.CompletedAt = &now
	} else {
		record.SetFlagWithCode("gateway_rejected", response.ErrorMessage())
	}

	if err := o.store.Save(record); err != nil {
		slog.Error("failed to persist payment record", "error", err, "flow", record.Flow)
	}

	if success {
		o.emitCompleted(record)
		return Redirect(o.successURL)
	}
	return o.renderPaymentForm(nil, MsgPaymentFailed)
}

// emitCompleted 持久化成功的支付后通知业务系统，通知失败只记日志
func (o *Orchestrator) emitCompleted(record *models.PaymentRecord) {
	amount := decimal.NewFromInt(record.Amount).Div(decimal.NewFromInt(100))
	event := &types.PaymentCompletedEvent{
		PaymentHashID: record.HashID(),
		Channel:       record.Channel,
		Flow:          types.PaymentFlow(record.Flow),
		Amount:        &amount,
		Currency:      record.Currency,
		Recurring:     record.Recurring,
		CorrelationID: record.CorrelationID,
		CompletedAt:   time.Now(),
	}
	if record.CompletedAt != nil {
		event.CompletedAt = *record.CompletedAt
	}
	if err := events.EmitPaymentCompleted(event); err != nil {
		slog.Error("failed to emit payment completed event", "error", err, "payment", event.PaymentHashID)
	}
}
