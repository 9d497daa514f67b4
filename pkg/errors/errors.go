package errors

import "github.com/flaboy/pin/usererrors"

// Checkout相关错误
var (
	ErrIntentMissing   = usererrors.New("checkout.intent_missing", "Checkout requires a purchase intent")
	ErrIntentInvalid   = usererrors.New("checkout.intent_invalid", "Purchase intent is not valid for checkout")
	ErrChannelNotFound = usererrors.New("checkout.channel_not_found", "Payment channel not found")
	ErrBadRequestForm  = usererrors.New("checkout.bad_request_form", "Could not parse the submitted form")
	ErrTemplateInvalid = usererrors.New("checkout.template_invalid", "Checkout template failed to parse")
)
