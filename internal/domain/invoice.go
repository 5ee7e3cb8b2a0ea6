package domain

import (
	"net/url"
	"strconv"
)

// ============================================================
// Invoices & dashboard
// ============================================================

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoiceDelivered InvoiceStatus = "delivered"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Invoice is a structured invoice as listed by the backend.
type Invoice struct {
	ID                   string        `json:"id"`
	InvoiceNumber        string        `json:"invoice_number"`
	InvoiceTypeCode      string        `json:"invoice_type_code,omitempty"`
	IssueDate            string        `json:"issue_date"`
	DueDate              string        `json:"due_date"`
	SupplierName         string        `json:"supplier_name"`
	CustomerName         string        `json:"customer_name"`
	DocumentCurrencyCode string        `json:"document_currency_code"`
	TaxExclusiveAmount   float64       `json:"tax_exclusive_amount"`
	TaxInclusiveAmount   float64       `json:"tax_inclusive_amount"`
	PayableAmount        float64       `json:"payable_amount"`
	Status               InvoiceStatus `json:"status"`
	PeppolStatus         string        `json:"peppol_status,omitempty"`
	ErpSyncStatus        string        `json:"erp_sync_status,omitempty"`
	CreatedAt            string        `json:"created_at,omitempty"`
	UpdatedAt            string        `json:"updated_at,omitempty"`
}

// InvoiceFilters narrows the invoice list. The zero value lists everything.
type InvoiceFilters struct {
	Status   InvoiceStatus `json:"status,omitempty" validate:"omitempty,oneof=draft sent delivered paid cancelled"`
	Search   string        `json:"search,omitempty"`
	DateFrom string        `json:"date_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string        `json:"date_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Limit    int           `json:"limit,omitempty" validate:"gte=0,lte=200"`
	Offset   int           `json:"offset,omitempty" validate:"gte=0"`
}

// Query encodes the filters as a query string. Encoding is sorted by key so it
// can also serve as a stable cache key component.
func (f InvoiceFilters) Query() url.Values {
	v := url.Values{}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.DateFrom != "" {
		v.Set("date_from", f.DateFrom)
	}
	if f.DateTo != "" {
		v.Set("date_to", f.DateTo)
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		v.Set("offset", strconv.Itoa(f.Offset))
	}
	return v
}

// DashboardStats is the aggregate shown on the main dashboard.
type DashboardStats struct {
	TotalInvoices     int     `json:"total_invoices"`
	DraftInvoices     int     `json:"draft_invoices"`
	SentInvoices      int     `json:"sent_invoices"`
	PaidInvoices      int     `json:"paid_invoices"`
	CancelledInvoices int     `json:"cancelled_invoices"`
	TotalRevenue      float64 `json:"total_revenue"`
	PendingAmount     float64 `json:"pending_amount"`
	OverdueInvoices   int     `json:"overdue_invoices"`
	Currency          string  `json:"currency,omitempty"`
}

// Dashboard combines stats with the cached business profile.
type Dashboard struct {
	Stats   *DashboardStats  `json:"stats"`
	Profile *BusinessProfile `json:"profile,omitempty"`
}
