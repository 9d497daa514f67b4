package checkout

import "net/url"

// OutcomeKind 处理结果的类型
type OutcomeKind int

const (
	OutcomeRender   OutcomeKind = iota // 渲染表单页面
	OutcomeRedirect                    // 302跳转
)

// 模板标识
const (
	TemplatePayment = "payment"
	TemplateConfirm = "confirm"
)

// Outcome 一次请求的终态：要么渲染要么跳转，处理器不向外抛错误
type Outcome struct {
	Kind     OutcomeKind
	Location string     // 跳转目标
	Template string     // 渲染的模板标识
	Fields   url.Values // 回显/预填的表单值
	Errors   string     // 展示给付款人的提示文案
}

// Redirect 构造跳转结果
func Redirect(location string) *Outcome {
	return &Outcome{Kind: OutcomeRedirect, Location: location}
}

// Render 构造渲染结果
func Render(template string, fields url.Values, errors string) *Outcome {
	if fields == nil {
		fields = url.Values{}
	}
	return &Outcome{Kind: OutcomeRender, Template: template, Fields: fields, Errors: errors}
}
