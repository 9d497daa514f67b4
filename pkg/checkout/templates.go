package checkout

import (
	"html/template"
	"net/url"
	"strings"
)

// renderData 模板渲染上下文
type renderData struct {
	Fields url.Values
	Errors string
}

type templateSet struct {
	payment *template.Template
	confirm *template.Template
}

// newTemplateSet 解析模板，空文本用内置模板
func newTemplateSet(paymentText, confirmText string) (*templateSet, error) {
	if paymentText == "" {
		paymentText = defaultPaymentTemplate
	}
	if confirmText == "" {
		confirmText = defaultConfirmTemplate
	}

	payment, err := template.New(TemplatePayment).Parse(paymentText)
	if err != nil {
		return nil, err
	}
	confirm, err := template.New(TemplateConfirm).Parse(confirmText)
	if err != nil {
		return nil, err
	}
	return &templateSet{payment: payment, confirm: confirm}, nil
}

// render 执行渲染结果对应的模板
func (t *templateSet) render(outcome *Outcome) (string, error) {
	tmpl := t.payment
	if outcome.Template == TemplateConfirm {
		tmpl = t.confirm
	}

	var sb strings.Builder
	err := tmpl.Execute(&sb, &renderData{Fields: outcome.Fields, Errors: outcome.Errors})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// 内置支付表单模板，按PayPal要求附带express结账入口
const defaultPaymentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Payment</title>
    <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-100 py-8">
    <div class="max-w-md w-full mx-auto bg-white shadow-lg rounded-lg p-6">
        <h3 class="text-lg font-medium text-gray-900 mb-4">Payment Details</h3>
        {{if .Errors}}<div class="bg-red-100 text-red-800 rounded p-3 mb-4 text-sm">{{.Errors}}</div>{{end}}
        <form method="post">
            <div class="grid grid-cols-2 gap-3 mb-3">
                <input name="firstname" value="{{.Fields.Get "firstname"}}" placeholder="First name" class="border rounded p-2">
                <input name="lastname" value="{{.Fields.Get "lastname"}}" placeholder="Last name" class="border rounded p-2">
            </div>
            <div class="mb-3">
                <select name="cardtype" class="border rounded p-2 w-full">
                    <option value="Visa">Visa</option>
                    <option value="MasterCard">MasterCard</option>
                    <option value="Discover">Discover</option>
                    <option value="Amex">Amex</option>
                </select>
            </div>
            <div class="mb-3">
                <input name="acct" placeholder="Card number" class="border rounded p-2 w-full">
            </div>
            <div class="grid grid-cols-3 gap-3 mb-3">
                <input name="expmonth" value="{{.Fields.Get "expmonth"}}" placeholder="MM" class="border rounded p-2">
                <input name="expyear" value="{{.Fields.Get "expyear"}}" placeholder="YYYY" class="border rounded p-2">
                <input name="cvv2" placeholder="CVV2" class="border rounded p-2">
            </div>
            <div class="mb-3">
                <input name="street" value="{{.Fields.Get "street"}}" placeholder="Street" class="border rounded p-2 w-full">
            </div>
            <div class="grid grid-cols-2 gap-3 mb-3">
                <input name="city" value="{{.Fields.Get "city"}}" placeholder="City" class="border rounded p-2">
                <input name="state" value="{{.Fields.Get "state"}}" placeholder="State" class="border rounded p-2">
            </div>
            <div class="grid grid-cols-2 gap-3 mb-4">
                <input name="zip" value="{{.Fields.Get "zip"}}" placeholder="ZIP" class="border rounded p-2">
                <input name="countrycode" value="{{.Fields.Get "countrycode"}}" placeholder="Country code" class="border rounded p-2">
            </div>
            <button type="submit" class="w-full bg-blue-600 hover:bg-blue-700 text-white font-medium py-2 px-4 rounded">Pay Now</button>
        </form>
        <div class="text-center mt-4">
            <a href="?express=1" class="text-sm text-blue-600 hover:underline">Check out with PayPal Express</a>
        </div>
    </div>
</body>
</html>`

// 内置确认表单模板，预填express令牌对
const defaultConfirmTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Confirm Payment</title>
    <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-100 h-screen flex items-center justify-center">
    <div class="max-w-md w-full mx-auto bg-white shadow-lg rounded-lg p-6 text-center">
        <h3 class="text-lg font-medium text-gray-900 mb-2">Confirm Your Payment</h3>
        <p class="text-sm text-gray-500 mb-4">You approved this payment on PayPal. Confirm to complete it.</p>
        {{if .Errors}}<div class="bg-red-100 text-red-800 rounded p-3 mb-4 text-sm">{{.Errors}}</div>{{end}}
        <form method="post">
            <input type="hidden" name="token" value="{{.Fields.Get "token"}}">
            <input type="hidden" name="PayerID" value="{{.Fields.Get "PayerID"}}">
            <button type="submit" class="w-full bg-blue-600 hover:bg-blue-700 text-white font-medium py-2 px-4 rounded">Confirm Payment</button>
        </form>
    </div>
</body>
</html>`
