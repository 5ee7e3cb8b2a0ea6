package domain

// ============================================================
// Business profile & TIN
// ============================================================

type IndustryClassification string

const (
	IndustrySystemIntegrator     IndustryClassification = "SYSTEM_INTEGRATOR"
	IndustryAgriculture          IndustryClassification = "AGRICULTURE"
	IndustryMining               IndustryClassification = "MINING"
	IndustryManufacturing        IndustryClassification = "MANUFACTURING"
	IndustryEnergy               IndustryClassification = "ENERGY"
	IndustryConstruction         IndustryClassification = "CONSTRUCTION"
	IndustryRetail               IndustryClassification = "RETAIL"
	IndustryTransportation       IndustryClassification = "TRANSPORTATION"
	IndustryInformation          IndustryClassification = "INFORMATION"
	IndustryFinance              IndustryClassification = "FINANCE"
	IndustryRealEstate           IndustryClassification = "REAL_ESTATE"
	IndustryScientific           IndustryClassification = "SCIENTIFIC"
	IndustryAdministrative       IndustryClassification = "ADMINISTRATIVE"
	IndustryEducation            IndustryClassification = "EDUCATION"
	IndustryHealthcare           IndustryClassification = "HEALTHCARE"
	IndustryArts                 IndustryClassification = "ARTS"
	IndustryAccommodation        IndustryClassification = "ACCOMMODATION"
	IndustryOtherServices        IndustryClassification = "OTHER_SERVICES"
	IndustryPublicAdministration IndustryClassification = "PUBLIC_ADMINISTRATION"
)

type ReportingMethod string

const (
	ReportingRealTime    ReportingMethod = "REAL_TIME"
	ReportingBatch       ReportingMethod = "BATCH"
	ReportingManualEntry ReportingMethod = "MANUAL_ENTRY"
)

type ErpSolution string

const (
	ErpSAP               ErpSolution = "SAP"
	ErpOracle            ErpSolution = "ORACLE"
	ErpMicrosoftDynamics ErpSolution = "MICROSOFT_DYNAMICS"
	ErpSage              ErpSolution = "SAGE"
	ErpQuickBooks        ErpSolution = "QUICKBOOKS"
	ErpXero              ErpSolution = "XERO"
	ErpNetSuite          ErpSolution = "NETSUITE"
	ErpZoho              ErpSolution = "ZOHO"
	ErpTally             ErpSolution = "TALLY"
	ErpCustom            ErpSolution = "CUSTOM"
	ErpOther             ErpSolution = "OTHER"
)

type NotificationPreference string

const (
	NotifySMS   NotificationPreference = "SMS"
	NotifyEmail NotificationPreference = "EMAIL"
	NotifyPhone NotificationPreference = "PHONE"
	NotifyPush  NotificationPreference = "PUSH_NOTIFICATION"
)

type ExchangeFramework string

const (
	ExchangeJSON ExchangeFramework = "JSON"
	ExchangeXML  ExchangeFramework = "XML"
)

// TINStatus is the registry verdict on a TIN.
type TINStatus string

const (
	TINVerified TINStatus = "VERIFIED"
	TINFailed   TINStatus = "FAILED"
)

// TINVerificationRequest is the body for the TIN verification endpoint.
type TINVerificationRequest struct {
	TIN string `json:"tin" validate:"required,min=8,max=20"`
}

// TINRecord is the verified-TIN record returned by the backend.
type TINRecord struct {
	ID           string    `json:"id"`
	TIN          string    `json:"tin"`
	Status       TINStatus `json:"status"`
	BusinessName string    `json:"businessName"`
}

// CreateBusinessProfileRequest is the onboarding payload.
type CreateBusinessProfileRequest struct {
	TINRequestID                      string                 `json:"tinRequestId" validate:"required"`
	IndustryClassification            IndustryClassification `json:"industryClassification" validate:"required,industry"`
	ReportingMethods                  ReportingMethod        `json:"reportingMethods" validate:"required,oneof=REAL_TIME BATCH MANUAL_ENTRY"`
	ErpSolution                       ErpSolution            `json:"erpSolution" validate:"required,erp"`
	AggregateTurnover                 *float64               `json:"aggregateTurnover,omitempty" validate:"omitempty,gte=0"`
	NotificationPreferences           NotificationPreference `json:"notificationPreferences,omitempty" validate:"omitempty,oneof=SMS EMAIL PHONE PUSH_NOTIFICATION"`
	PreferredInvoiceExchangeFramework ExchangeFramework      `json:"preferredInvoiceExchangeFramework,omitempty" validate:"omitempty,oneof=JSON XML"`
}

// BusinessProfile is the backend-owned profile; the console keeps a cached copy.
type BusinessProfile struct {
	ID                                string                 `json:"id"`
	IndustryClassification            IndustryClassification `json:"industryClassification"`
	ReportingMethods                  ReportingMethod        `json:"reportingMethods"`
	ErpSolution                       ErpSolution            `json:"erpSolution"`
	AggregateTurnover                 *float64               `json:"aggregateTurnover,omitempty"`
	NotificationPreferences           NotificationPreference `json:"notificationPreferences,omitempty"`
	PreferredInvoiceExchangeFramework ExchangeFramework      `json:"preferredInvoiceExchangeFramework,omitempty"`
	TIN                               *TINRecord             `json:"tin,omitempty"`
}

// APIKeys are the integration credentials of a business.
type APIKeys struct {
	PublicKey string `json:"publicKey"`
	SecretKey string `json:"secretKey"`
	Active    bool   `json:"active"`
}

// Industries lists every valid classification in display order.
func Industries() []IndustryClassification {
	return []IndustryClassification{
		IndustrySystemIntegrator, IndustryAgriculture, IndustryMining, IndustryManufacturing,
		IndustryEnergy, IndustryConstruction, IndustryRetail, IndustryTransportation,
		IndustryInformation, IndustryFinance, IndustryRealEstate, IndustryScientific,
		IndustryAdministrative, IndustryEducation, IndustryHealthcare, IndustryArts,
		IndustryAccommodation, IndustryOtherServices, IndustryPublicAdministration,
	}
}

// ErpSolutions lists every valid ERP solution.
func ErpSolutions() []ErpSolution {
	return []ErpSolution{
		ErpSAP, ErpOracle, ErpMicrosoftDynamics, ErpSage, ErpQuickBooks, ErpXero,
		ErpNetSuite, ErpZoho, ErpTally, ErpCustom, ErpOther,
	}
}
