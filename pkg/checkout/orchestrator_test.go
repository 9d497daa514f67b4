package checkout

import (
	"context"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flaboy/aira-checkout/pkg/events"
	"github.com/flaboy/aira-checkout/pkg/gateway"
	"github.com/flaboy/aira-checkout/pkg/models"
	"github.com/flaboy/aira-checkout/pkg/types"
)

const testExpressEndpoint = "https://www.sandbox.paypal.com/webscr?cmd=_express-checkout"

// fakeGateway 按预设响应应答，并记录每个操作的调用次数
type fakeGateway struct {
	setExpressResp gateway.Response
	doExpressResp  gateway.Response
	directResp     gateway.Response
	recurringResp  gateway.Response
	endpoint       string

	setExpressCalls int
	doExpressCalls  int
	directCalls     int
	recurringCalls  int

	lastExpressIntent *types.PurchaseIntent
}

func (f *fakeGateway) SetExpressCheckout(ctx context.Context, intent *types.PurchaseIntent) (gateway.Response, error) {
	f.setExpressCalls++
	return f.setExpressResp, nil
}

func (f *fakeGateway) DoExpressCheckoutPayment(ctx context.Context, intent *types.PurchaseIntent) (gateway.Response, error) {
	f.doExpressCalls++
	f.lastExpressIntent = intent
	return f.doExpressResp, nil
}

func (f *fakeGateway) DoDirectPayment(ctx context.Context, intent *types.PurchaseIntent, params *gateway.DirectPaymentParams) (gateway.Response, error) {
	f.directCalls++
	return f.directResp, nil
}

func (f *fakeGateway) CreateRecurringPaymentsProfile(ctx context.Context, intent *types.PurchaseIntent, params *gateway.DirectPaymentParams) (gateway.Response, error) {
	f.recurringCalls++
	return f.recurringResp, nil
}

func (f *fakeGateway) ExpressCheckoutURL() string {
	if f.endpoint == "" {
		return testExpressEndpoint
	}
	return f.endpoint
}

func (f *fakeGateway) Init() error { return nil }

func (f *fakeGateway) GetChannelName() string { return "fake" }

// fakeStore 内存存储，记录每次Save
type fakeStore struct {
	saved []*models.PaymentRecord
}

func (s *fakeStore) Save(record *models.PaymentRecord) error {
	s.saved = append(s.saved, record)
	return nil
}

func testIntent() *types.PurchaseIntent {
	return &types.PurchaseIntent{
		Amount:    decimal.RequireFromString("10.50"),
		ReturnURL: "https://shop.example/return",
		CancelURL: "https://shop.example/cancel",
	}
}

func newTestOrchestrator(t *testing.T, gw *fakeGateway, store *fakeStore, failURL string) *Orchestrator {
	t.Helper()
	o, err := New(Options{
		Intent:     testIntent(),
		Gateway:    gw,
		Store:      store,
		SuccessURL: "/done",
		FailURL:    failURL,
	})
	require.NoError(t, err)
	return o
}

func validCardForm() url.Values {
	return url.Values{
		"firstname":   {"Ada"},
		"lastname":    {"Lovelace"},
		"cardtype":    {"Visa"},
		"acct":        {"4111111111111111"},
		"expmonth":    {"12"},
		"expyear":     {"2030"},
		"cvv2":        {"123"},
		"street":      {"1 Analytical Way"},
		"city":        {"London"},
		"state":       {"LDN"},
		"zip":         {"E1 6AN"},
		"countrycode": {"GB"},
	}
}

func getRequest(query url.Values) *types.Request {
	if query == nil {
		query = url.Values{}
	}
	return &types.Request{Method: "GET", Query: query, Form: url.Values{}, RemoteIP: "203.0.113.7"}
}

func postRequest(form url.Values) *types.Request {
	if form == nil {
		form = url.Values{}
	}
	return &types.Request{Method: "POST", Query: url.Values{}, Form: form, RemoteIP: "203.0.113.7"}
}

func TestClassify(t *testing.T) {
	confirmable := validCardForm()
	confirmable.Set("token", "EC-123")
	confirmable.Set("PayerID", "PAYER9")

	tests := []struct {
		name string
		req  *types.Request
		want RequestIntent
	}{
		{"get default", getRequest(nil), IntentRenderPaymentForm},
		{"get express marker", getRequest(url.Values{"express": {"1"}}), IntentInitiateExpress},
		{"get empty express marker", getRequest(url.Values{"express": {""}}), IntentInitiateExpress},
		{"get token pair", getRequest(url.Values{"token": {"EC-123"}, "PayerID": {"PAYER9"}}), IntentRenderConfirm},
		{"get token pair with empty payer id", getRequest(url.Values{"token": {"EC-123"}, "PayerID": {""}}), IntentRenderConfirm},
		{"get empty token pair", getRequest(url.Values{"token": {""}, "PayerID": {""}}), IntentRenderConfirm},
		{"get token only", getRequest(url.Values{"token": {"EC-123"}}), IntentRenderPaymentForm},
		{"express beats token pair", getRequest(url.Values{"express": {"1"}, "token": {"EC-123"}, "PayerID": {"PAYER9"}}), IntentInitiateExpress},
		{"post default", postRequest(nil), IntentValidatePayment},
		{"post token only", postRequest(url.Values{"token": {"EC-123"}}), IntentValidatePayment},
		{"post empty token pair", postRequest(url.Values{"token": {""}, "PayerID": {""}}), IntentConfirmExpress},
		{"post token pair beats valid card form", postRequest(confirmable), IntentConfirmExpress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.req))
		})
	}
}

func TestInitiateExpressRedirect(t *testing.T) {
	gw := &fakeGateway{
		setExpressResp: gateway.Response{gateway.FieldAck: gateway.AckSuccess, gateway.FieldToken: "abc"},
	}
	store := &fakeStore{}
	o := newTestOrchestrator(t, gw, store, "")

	outcome := o.Dispatch(context.Background(), getRequest(url.Values{"express": {"1"}}))

	require.Equal(t, OutcomeRedirect, outcome.Kind)
	target, err := url.Parse(outcome.Location)
	require.NoError(t, err)
	assert.Equal(t, "www.sandbox.paypal.com", target.Host)

	query := target.Query()
	assert.Equal(t, "_express-checkout", query.Get("cmd"))
	assert.Equal(t, "abc", query.Get("token"))
	assert.Equal(t, "10.50", query.Get("AMT"))
	assert.Equal(t, "https://shop.example/return", query.Get("RETURNURL"))
	assert.Equal(t, "https://shop.example/cancel", query.Get("CANCELURL"))

	assert.Equal(t, 1, gw.setExpressCalls)
	assert.Empty(t, store.saved, "initiate express must not persist")
}

func TestInitiateExpressEndpointWithoutQuery(t *testing.T) {
	gw := &fakeGateway{
		endpoint:       "https://www.sandbox.paypal.com/checkoutnow",
		setExpressResp: gateway.Response{gateway.FieldAck: gateway.AckSuccess, gateway.FieldToken: "ORDER-1"},
	}
	o := newTestOrchestrator(t, gw, &fakeStore{}, "")

	outcome := o.Dispatch(context.Background(), getRequest(url.Values{"express": {"1"}}))

	require.Equal(t, OutcomeRedirect, outcome.Kind)
	target, err := url.Parse(outcome.Location)
	require.NoError(t, err)
	assert.Equal(t, "/checkoutnow", target.Path)
	assert.Equal(t, "ORDER-1", target.Query().Get("token"))
}

func TestInitiateExpressGatewayFailure(t *testing.T) {
	tests := []struct {
		name string
		resp gateway.Response
	}{
		{"failure ack", gateway.Failed("no token for you")},
		{"success without token", gateway.Response{gateway.FieldAck: gateway.AckSuccess}},
		{"empty response", gateway.Response{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{setExpressResp: tt.resp}
			store := &fakeStore{}
			o := newTestOrchestrator(t, gw, store, "")

			outcome := o.Dispatch(context.Background(), getRequest(url.Values{"express": {"1"}}))

			require.Equal(t, OutcomeRender, outcome.Kind)
			assert.Equal(t, TemplatePayment, outcome.Template)
			assert.Equal(t, MsgGatewayContact, outcome.Errors)
			assert.Empty(t, store.saved)
		})
	}
}

func TestRenderConfirmPrefilled(t *testing.T) {
	gw := &fakeGateway{}
	store := &fakeStore{}
	o := newTestOrchestrator(t, gw, store, "")

	req := getRequest(url.Values{"token": {"EC-42"}, "PayerID": {"PAYER7"}, "noise": {"x"}})

	// 纯渲染，重复调用结果一致且无副作用
	for i := 0; i < 2; i++ {
		outcome := o.Dispatch(context.Background(), req)
		require.Equal(t, OutcomeRender, outcome.Kind)
		assert.Equal(t, TemplateConfirm, outcome.Template)
		assert.Equal(t, "EC-42", outcome.Fields.Get("token"))
		assert.Equal(t, "PAYER7", outcome.Fields.Get("PayerID"))
		assert.Empty(t, outcome.Errors)
	}

	assert.Zero(t, gw.setExpressCalls)
	assert.Zero(t, gw.doExpressCalls)
	assert.Zero(t, gw.directCalls)
	assert.Empty(t, store.saved)
}

func TestRenderConfirmWithEmptyPayerID(t *testing.T) {
	gw := &fakeGateway{}
	store := &fakeStore{}
	o := newTestOrchestrator(t, gw, store, "")

	// 标记按键出现分类，空值也走确认表单
	outcome := o.Dispatch(context.Background(), getRequest(url.Values{"token": {"EC-42"}, "PayerID": {""}}))

	require.Equal(t, OutcomeRender, outcome.Kind)
	assert.Equal(t, TemplateConfirm, outcome.Template)
	assert.Equal(t, "EC-42", outcome.Fields.Get("token"))
	assert.Empty(t, outcome.Fields.Get("PayerID"))
	assert.Empty(t, store.saved)
	assert.Zero(t, gw.directCalls)
}

func TestConfirmExpressWithEmptyPair(t *testing.T) {
	gw := &fakeGateway{doExpressResp: gateway.Failed("missing token")}
	store := &fakeStore{}
	o := newTestOrchestrator(t, gw, store, "")

	// 空值令牌对仍走express确认，不落入直接支付路径
	outcome := o.Dispatch(context.Background(), postRequest(url.Values{"token": {""}, "PayerID": {""}}))

	require.Equal(t, OutcomeRender, outcome.Kind)
	assert.Equal(t, MsgPaymentFailed, outcome.Errors)
	assert.Equal(t, 1, gw.doExpressCalls)
	assert.Zero(t, gw.directCalls)
	require.Len(t, store.saved, 1)
	assert.Equal(t, string(types.PaymentFlowExpress), store.saved[0].Flow)
}

// staticConfirmForm 固定令牌对的确认表单
type staticConfirmForm struct {
	token   string
	payerID string
}

func (f *staticConfirmForm) Bind(form url.Values) {
	f.token = form.Get("token")
	f.payerID = form.Get("PayerID")
}

func (f *staticConfirmForm) Validate() error { return nil }

func (f *staticConfirmForm) Fields() url.Values {
	fields := url.Values{}
	fields.Set("token", "wrapped-"+f.token)
	fields.Set("PayerID", f.payerID)
	return fields
}

func TestConfirmFormFactoryOverride(t *testing.T) {
	gw := &fakeGateway{doExpressResp: gateway.Response{gateway.FieldAck: gateway.AckSuccess}}
	store := &fakeStore{}
	o, err := New(Options{
		Intent:         testIntent(),
		Gateway:        gw,
		Store:          store,
		SuccessURL:     "/done",
		NewConfirmForm: func() ConfirmForm { return &staticConfirmForm{} },
	})
	require.NoError(t, err)

	render := o.Dispatch(context.Background(), getRequest(url.Values{"token": {"EC-1"}, "PayerID": {"P1"}}))
	require.Equal(t, OutcomeRender, render.Kind)
	assert.Equal(t, "wrapped-EC-1", render.Fields.Get("token"))

	o.Dispatch(context.Background(), postRequest(url.Values{"token": {"EC-1"}, "PayerID": {"P1"}}))
	require.NotNil(t, gw.lastExpressIntent)
	assert.Equal(t, "wrapped-EC-1", gw.lastExpressIntent.Session.Token)
}

func TestRenderPaymentFormIdempotent(t *testing.T) {
	gw := &fakeGateway{}
	store := &fakeStore{}
	o := newTestOrchestrator(t, gw, store, "")

	first := o.Dispatch(context.Background(), getRequest(nil))
	second := o.Dispatch(context.Background(), getRequest(nil))

	assert.Equal(t, first, second)
	require.Equal(t, OutcomeRender, first.Kind)
	assert.Equal(t, TemplatePayment, first.Template)
	assert.Zero(t, gw.directCalls)
	assert.Empty(t, store.saved)
}

func TestValidatePaymentFormFailure(t *testing.T) {
	gw := &fakeGateway{directResp: gateway.Response{gateway.FieldAck: gateway.AckSuccess}}
	store := &fakeStore{}
	o := newTestOrchestrator(t, gw, store, "")

	outcome := o.Dispatch(context.Background(), postRequest(url.Values{"firstname": {"Ada"}}))

	require.Len(t, store.saved, 1, "record persisted exactly once")
	record := store.saved[0]
	assert.True(t, record.Flag)
	assert.Contains(t, record.FlagInfo, "Bad form data")
	assert.Equal(t, models.PaymentStatusFailed, record.Status)
	assert.Equal(t, "203.0.113.7", record.IPAddress)
	assert.Zero(t, gw.directCalls, "gateway must not be called on validation failure")
	assert.Zero(t, gw.recurringCalls)

	require.Equal(t, OutcomeRender, outcome.Kind)
	assert.Equal(t, MsgCorrectErrors, outcome.Errors)
}

func TestValidatePaymentSuccess(t *testing.T) {
	gw := &fakeGateway{directResp: gateway.Response{
		gateway.FieldAck:           gateway.AckSuccess,
		gateway.FieldTransactionID: "TX-1",
		gateway.FieldCorrelationID: "CORR-1",
	}}
	store := &fakeStore{}
	o := newTestOrchestrator(t, gw, store, "")

	outcome := o.Dispatch(context.Background(), postRequest(validCardForm()))

	require.Equal(t, OutcomeRedirect, outcome.Kind)
	assert.Equal(t, "/done", outcome.Location)

	require.Len(t, store.saved, 1)
	record := store.saved[0]
	assert.Equal(t, models.PaymentStatusCompleted, record.Status)
	assert.False(t, record.Flag)
	assert.Equal(t, int64(1050), record.Amount)
	assert.Equal(t, "USD", record.Currency)
	assert.Equal(t, "TX-1", record.TransactionID)
	assert.Equal(t, string(types.PaymentFlowDirect), record.Flow)
	assert.Equal(t, 1, gw.directCalls)
}

func TestValidatePaymentGatewayFailureWithFailURL(t *testing.T) {
	gw := &fakeGateway{directResp: gateway.Failed("card declined")}
	store := &fakeStore{}
	o := newTestOrchestrator(t, gw, store, "/failed")

	outcome := o.Dispatch(context.Background(), postRequest(validCardForm()))

	require.Equal(t, OutcomeRedirect, outcome.Kind)
	assert.Equal(t, "/failed", outcome.Location)

	require.Len(t, store.saved, 1)
	assert.True(t, store.saved[0].Flag)
	assert.Equal(t, "gateway_rejected", store.saved[0].FlagCode)
}

func TestValidatePaymentGatewayFailureNoFailURL(t *testing.T) {
	gw := &fakeGateway{directResp: gateway.Failed("card declined")}
	store := &fakeStore{}
	o := newTestOrchestrator(t, gw, store, "")

	outcome := o.Dispatch(context.Background(), postRequest(validCardForm()))

	require.Equal(t, OutcomeRender, outcome.Kind)
	assert.Equal(t, TemplatePayment, outcome.Template)
	assert.NotEmpty(t, outcome.Errors)
	// 回显提交的值，卡号和CVV2除外
	assert.Equal(t, "Ada", outcome.Fields.Get("firstname"))
	assert.Equal(t, "London", outcome.Fields.Get("city"))
	assert.Empty(t, outcome.Fields.Get("acct"))
	assert.Empty(t, outcome.Fields.Get("cvv2"))

	require.Len(t, store.saved, 1)
}

func TestValidatePaymentRecurringIntent(t *testing.T) {
	gw := &fakeGateway{recurringResp: gateway.Response{
		gateway.FieldAck:       gateway.AckSuccess,
		gateway.FieldProfileID: "I-PROFILE1",
	}}
	store := &fakeStore{}
	intent := testIntent()
	intent.BillingPeriod = types.BillingPeriodMonth
	intent.BillingFrequency = 1
	intent.ProfileStartDate = "2026-09-01T00:00:00Z"
	intent.Description = "Monthly plan"

	o, err := New(Options{Intent: intent, Gateway: gw, Store: store, SuccessURL: "/done"})
	require.NoError(t, err)

	outcome := o.Dispatch(context.Background(), postRequest(validCardForm()))

	require.Equal(t, OutcomeRedirect, outcome.Kind)
	assert.Equal(t, 1, gw.recurringCalls)
	assert.Zero(t, gw.directCalls)
	require.Len(t, store.saved, 1)
	assert.True(t, store.saved[0].Recurring)
}

func TestConfirmExpressSuccess(t *testing.T) {
	gw := &fakeGateway{doExpressResp: gateway.Response{
		gateway.FieldAck:           gateway.AckSuccess,
		gateway.FieldTransactionID: "TX-9",
	}}
	store := &fakeStore{}
	o := newTestOrchestrator(t, gw, store, "")

	form := url.Values{"token": {"EC-55"}, "PayerID": {"PAYER5"}}
	outcome := o.Dispatch(context.Background(), postRequest(form))

	require.Equal(t, OutcomeRedirect, outcome.Kind)
	assert.Equal(t, "/done", outcome.Location)
	assert.Equal(t, 1, gw.doExpressCalls)

	// 令牌对进入传给网关的意图副本，原意图保持不变
	require.NotNil(t, gw.lastExpressIntent)
	assert.Equal(t, "EC-55", gw.lastExpressIntent.Session.Token)
	assert.Equal(t, "PAYER5", gw.lastExpressIntent.Session.PayerID)
	assert.False(t, o.intent.Session.Present())

	require.Len(t, store.saved, 1)
	record := store.saved[0]
	assert.Equal(t, models.PaymentStatusCompleted, record.Status)
	assert.Equal(t, "EC-55", record.ExpressToken)
	assert.Equal(t, "PAYER5", record.PayerID)
	assert.Equal(t, string(types.PaymentFlowExpress), record.Flow)
}

func TestConfirmExpressFailure(t *testing.T) {
	gw := &fakeGateway{doExpressResp: gateway.Failed("session expired")}
	store := &fakeStore{}
	o := newTestOrchestrator(t, gw, store, "/failed")

	form := url.Values{"token": {"EC-55"}, "PayerID": {"PAYER5"}}
	outcome := o.Dispatch(context.Background(), postRequest(form))

	// express确认失败不走FailURL，按原流程重渲染支付表单
	require.Equal(t, OutcomeRender, outcome.Kind)
	assert.Equal(t, TemplatePayment, outcome.Template)
	assert.Equal(t, MsgPaymentFailed, outcome.Errors)

	require.Len(t, store.saved, 1)
	assert.True(t, store.saved[0].Flag)
	assert.Equal(t, "gateway_rejected", store.saved[0].FlagCode)
}

// recordingHandler 记录收到的支付完成事件
type recordingHandler struct {
	received []*types.PaymentCompletedEvent
}

func (h *recordingHandler) OnPaymentCompleted(event *types.PaymentCompletedEvent) error {
	h.received = append(h.received, event)
	return nil
}

func TestPaymentCompletedEventEmitted(t *testing.T) {
	handler := &recordingHandler{}
	events.SetPaymentHandler(handler)
	defer events.SetPaymentHandler(nil)

	gw := &fakeGateway{directResp: gateway.Response{gateway.FieldAck: gateway.AckSuccess}}
	o := newTestOrchestrator(t, gw, &fakeStore{}, "")

	o.Dispatch(context.Background(), postRequest(validCardForm()))

	require.Len(t, handler.received, 1)
	event := handler.received[0]
	assert.Equal(t, types.PaymentFlowDirect, event.Flow)
	assert.True(t, event.Amount.Equal(decimal.RequireFromString("10.50")))
}

func TestPaymentCompletedEventNotEmittedOnFailure(t *testing.T) {
	handler := &recordingHandler{}
	events.SetPaymentHandler(handler)
	defer events.SetPaymentHandler(nil)

	gw := &fakeGateway{directResp: gateway.Failed("declined")}
	o := newTestOrchestrator(t, gw, &fakeStore{}, "")

	o.Dispatch(context.Background(), postRequest(validCardForm()))

	assert.Empty(t, handler.received)
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Intent: &types.PurchaseIntent{}})
	assert.Error(t, err, "intent without amount and URLs is rejected")

	_, err = New(Options{Intent: testIntent(), Channel: "missing"})
	assert.Error(t, err, "unknown channel is rejected at construction")
}
