package apperr

import "github.com/desantiago/gallery-shop/pkg/zerror"

const (
	ValidationErrorCode       = "VALIDATION_FAILED"
	InvalidProductIDCode      = "INVALID_PRODUCT_ID"
	ProductNotFoundCode       = "PRODUCT_NOT_FOUND"
	PaymentProviderFailedCode = "PAYMENT_PROVIDER_FAILED"
	WebhookSignatureCode      = "WEBHOOK_SIGNATURE_INVALID"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	InvalidProductIDErr = zerror.NewBadRequest(InvalidProductIDCode, "product id must be a valid UUID")
	ProductNotFoundErr  = zerror.NewNotFound(ProductNotFoundCode, "product not found")

	PaymentProviderErr  = zerror.NewInternalServerError(PaymentProviderFailedCode, "payment provider error")
	WebhookSignatureErr = zerror.NewBadRequest(WebhookSignatureCode, "webhook signature verification failed")
)
