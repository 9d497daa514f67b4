package events

import "github.com/flaboy/aira-checkout/pkg/types"

type PaymentHandler interface {
	OnPaymentCompleted(event *types.PaymentCompletedEvent) error
}

var handler PaymentHandler

func SetPaymentHandler(h PaymentHandler) {
	handler = h
}

func EmitPaymentCompleted(event *types.PaymentCompletedEvent) error {
	if handler != nil {
		return handler.OnPaymentCompleted(event)
	}
	return nil
}
