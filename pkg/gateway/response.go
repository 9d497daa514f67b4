package gateway

// NVP响应中的通用字段名
const (
	FieldAck           = "ACK"
	FieldToken         = "TOKEN"
	FieldPayerID       = "PAYERID"
	FieldCorrelationID = "CORRELATIONID"
	FieldTransactionID = "TRANSACTIONID"
	FieldProfileID     = "PROFILEID"
	FieldErrorMessage  = "L_LONGMESSAGE0"

	AckSuccess            = "Success"
	AckSuccessWithWarning = "SuccessWithWarning"
)

// Response 网关响应，NVP风格的字段映射
// 缺少预期字段一律按失败处理，调用方不区分拒绝和畸形响应
type Response map[string]string

// Ack 确认字段，缺失时为空串
func (r Response) Ack() string {
	return r[FieldAck]
}

// Success 确认字段是否表示成功
func (r Response) Success() bool {
	ack := r.Ack()
	return ack == AckSuccess || ack == AckSuccessWithWarning
}

// Token express会话令牌
func (r Response) Token() string {
	return r[FieldToken]
}

// CorrelationID 网关侧请求关联ID，用于排查
func (r Response) CorrelationID() string {
	return r[FieldCorrelationID]
}

// TransactionID 支付交易ID
func (r Response) TransactionID() string {
	return r[FieldTransactionID]
}

// ErrorMessage 网关返回的第一条错误长文案，仅用于日志，不回显给付款人
func (r Response) ErrorMessage() string {
	return r[FieldErrorMessage]
}

// Failed 构造表示失败的响应，传输层错误折算用
func Failed(message string) Response {
	return Response{FieldAck: "Failure", FieldErrorMessage: message}
}
