package domain

import "encoding/json"

// ============================================================
// E-invoice actions (audit log of validate/report/sign/exchange)
// ============================================================

type ActionType string

const (
	ActionValidate               ActionType = "VALIDATE"
	ActionValidateIRN            ActionType = "VALIDATE_IRN"
	ActionConfirm                ActionType = "CONFIRM"
	ActionDownload               ActionType = "DOWNLOAD"
	ActionUpdate                 ActionType = "UPDATE"
	ActionReport                 ActionType = "REPORT"
	ActionExchangeSelfHealth     ActionType = "EXCHANGE_SELF_HEALTH"
	ActionExchangeLookupIRN      ActionType = "EXCHANGE_LOOKUP_IRN"
	ActionExchangeLookupTIN      ActionType = "EXCHANGE_LOOKUP_TIN"
	ActionExchangeTransmit       ActionType = "EXCHANGE_TRANSMIT"
	ActionExchangeConfirmReceipt ActionType = "EXCHANGE_CONFIRM_RECEIPT"
	ActionExchangePull           ActionType = "EXCHANGE_PULL"
)

// ActionTypes lists every action type.
func ActionTypes() []ActionType {
	return []ActionType{
		ActionValidate, ActionValidateIRN, ActionConfirm, ActionDownload, ActionUpdate,
		ActionReport, ActionExchangeSelfHealth, ActionExchangeLookupIRN,
		ActionExchangeLookupTIN, ActionExchangeTransmit, ActionExchangeConfirmReceipt,
		ActionExchangePull,
	}
}

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	for _, a := range ActionTypes() {
		if a == t {
			return true
		}
	}
	return false
}

// EInvoiceActionRecord is one entry of the e-invoice action log.
type EInvoiceActionRecord struct {
	ID           string     `json:"id"`
	CreatedAt    string     `json:"createdAt"`
	ActionType   ActionType `json:"actionType"`
	Reference    string     `json:"reference,omitempty"`
	PayloadJSON  string     `json:"payloadJson,omitempty"`
	Status       string     `json:"status,omitempty"`
	Message      string     `json:"message,omitempty"`
	ResponseBody string     `json:"responseBody,omitempty"`
}

// InvoiceSigningRecord is returned by the sign endpoint.
type InvoiceSigningRecord struct {
	ID           string `json:"id"`
	CreatedAt    string `json:"createdAt"`
	BusinessID   string `json:"businessId,omitempty"`
	IRN          string `json:"irn,omitempty"`
	InvoiceJSON  string `json:"invoiceJson"`
	Status       string `json:"status,omitempty"`
	Message      string `json:"message,omitempty"`
	ResponseBody string `json:"responseBody,omitempty"`
}

// TaxpayerAuthRecord lists a taxpayer login against the tax authority.
type TaxpayerAuthRecord struct {
	ID         string `json:"id"`
	CreatedAt  string `json:"createdAt"`
	Email      string `json:"email"`
	Code       string `json:"code,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
	Status     string `json:"status,omitempty"`
	Message    string `json:"message,omitempty"`
	ReceivedAt string `json:"receivedAt,omitempty"`
	EntityID   string `json:"entityId,omitempty"`
}

// TaxpayerAuthRequest starts a taxpayer authentication.
type TaxpayerAuthRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code,omitempty"`
}

// ValidateRequest wraps an invoice document for validation.
type ValidateRequest struct {
	Invoice json.RawMessage `json:"invoice" validate:"required"`
}

// CanonicalInvoice is the invoice document exchanged with the tax authority.
// Only the identifying fields are modelled; the rest travels as raw JSON.
type CanonicalInvoice struct {
	BusinessID           string  `json:"businessId,omitempty"`
	IRN                  string  `json:"irn,omitempty"`
	IssueDate            string  `json:"issueDate,omitempty"`
	DueDate              string  `json:"dueDate,omitempty"`
	InvoiceTypeCode      string  `json:"invoiceTypeCode,omitempty"`
	DocumentCurrencyCode string  `json:"documentCurrencyCode,omitempty"`
	PayableAmount        float64 `json:"payableAmount,omitempty"`
}
