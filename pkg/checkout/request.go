package checkout

import "github.com/flaboy/aira-checkout/pkg/types"

// RequestIntent 入站请求的分类结果，每个请求恰好命中一个
type RequestIntent int

const (
	IntentRenderPaymentForm RequestIntent = iota // 读请求默认：展示支付表单
	IntentInitiateExpress                        // 读请求带express标记：发起express
	IntentRenderConfirm                          // 读请求带令牌对：展示确认表单
	IntentValidatePayment                        // 写请求默认：站内直接支付
	IntentConfirmExpress                         // 写请求带令牌对：完成express支付
)

func (i RequestIntent) String() string {
	switch i {
	case IntentRenderPaymentForm:
		return "render_payment_form"
	case IntentInitiateExpress:
		return "initiate_express"
	case IntentRenderConfirm:
		return "render_confirm"
	case IntentValidatePayment:
		return "validate_payment"
	case IntentConfirmExpress:
		return "confirm_express"
	}
	return "unknown"
}

// Classify 按方法和标记参数分类入站请求
// 守卫顺序即优先级：express/确认标记始终先于默认的直接支付路径
func Classify(req *types.Request) RequestIntent {
	if !req.IsWrite() {
		switch {
		case req.HasExpressMarker():
			return IntentInitiateExpress
		case req.QueryHasSessionPair():
			return IntentRenderConfirm
		default:
			return IntentRenderPaymentForm
		}
	}
	if req.FormHasSessionPair() {
		return IntentConfirmExpress
	}
	return IntentValidatePayment
}
