package types

import "net/url"

// Request 框架无关的入站请求视图，编排器只依赖这里的字段
type Request struct {
	Method   string
	Query    url.Values
	Form     url.Values
	RemoteIP string
}

// IsWrite 是否为写请求（POST 等价）
func (r *Request) IsWrite() bool {
	return r.Method == "POST"
}

// HasExpressMarker 查询参数中是否带 express 标记
func (r *Request) HasExpressMarker() bool {
	return r.Query.Has("express")
}

// QueryHasSessionPair 查询参数中是否同时带 token 和 PayerID 标记
// 按键是否出现判断，值可以为空
func (r *Request) QueryHasSessionPair() bool {
	return r.Query.Has("token") && r.Query.Has("PayerID")
}

// FormHasSessionPair 表单中是否同时带 token 和 PayerID 标记
func (r *Request) FormHasSessionPair() bool {
	return r.Form.Has("token") && r.Form.Has("PayerID")
}
