package services

import "fmt"

// ErrorKind classifies payment orchestration failures.
type ErrorKind int

const (
	ErrKindOrderNotFound ErrorKind = iota + 1
	ErrKindTransactionNotFound
	ErrKindInvalidOrderState
	ErrKindGatewayUnavailable
	ErrKindGatewayRejected
	ErrKindConfiguration
	ErrKindMissingIdentifier
	ErrKindWebhook
)

// PaymentError is a structured orchestration error. Code and Message carry
// the gateway's own error data when present; they are persisted for audit
// but never exposed verbatim to end users.
type PaymentError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.kindString(), e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.kindString(), e.Err)
	}
	return e.kindString()
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

func (e *PaymentError) kindString() string {
	switch e.Kind {
	case ErrKindOrderNotFound:
		return "order not found"
	case ErrKindTransactionNotFound:
		return "transaction not found"
	case ErrKindInvalidOrderState:
		return "invalid order state"
	case ErrKindGatewayUnavailable:
		return "gateway unavailable"
	case ErrKindGatewayRejected:
		return "gateway rejected"
	case ErrKindConfiguration:
		return "configuration error"
	case ErrKindMissingIdentifier:
		return "missing identifier"
	case ErrKindWebhook:
		return "webhook error"
	}
	return "payment error"
}

// ErrorKindOf returns the kind of a PaymentError, or zero for other errors.
func ErrorKindOf(err error) ErrorKind {
	if pe, ok := err.(*PaymentError); ok {
		return pe.Kind
	}
	return 0
}

func orderNotFound() *PaymentError {
	return &PaymentError{Kind: ErrKindOrderNotFound}
}

func transactionNotFound() *PaymentError {
	return &PaymentError{Kind: ErrKindTransactionNotFound}
}

func invalidOrderState(status string) *PaymentError {
	return &PaymentError{Kind: ErrKindInvalidOrderState, Message: "order is not awaiting payment, current status: " + status}
}

func gatewayUnavailable(err error) *PaymentError {
	return &PaymentError{Kind: ErrKindGatewayUnavailable, Err: err}
}

func gatewayRejected(code, message string) *PaymentError {
	return &PaymentError{Kind: ErrKindGatewayRejected, Code: code, Message: message}
}

func configurationError(message string, err error) *PaymentError {
	return &PaymentError{Kind: ErrKindConfiguration, Message: message, Err: err}
}

func missingIdentifier() *PaymentError {
	return &PaymentError{Kind: ErrKindMissingIdentifier, Message: "webhook payload carries no transaction identifier"}
}
