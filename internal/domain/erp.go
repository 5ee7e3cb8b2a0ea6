package domain

// ErpAdapter is a named backend connector (SAP, Sage, ...).
type ErpAdapter struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
}

// Label returns the display name, falling back to a known label or the raw name.
func (a ErpAdapter) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	if l, ok := erpLabels[a.Name]; ok {
		return l
	}
	return a.Name
}

var erpLabels = map[string]string{
	"sap":      "SAP",
	"odoo":     "Odoo",
	"sage":     "Sage",
	"dynamics": "Microsoft Dynamics",
	"http":     "HTTP / Custom",
}

// ErpSyncResult is returned by push, pull and sync.
type ErpSyncResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Synced  int    `json:"synced,omitempty"`
	Failed  int    `json:"failed,omitempty"`
}

// ErpOperation is one of the adapter operations.
type ErpOperation string

const (
	ErpPush ErpOperation = "push"
	ErpPull ErpOperation = "pull"
	ErpSync ErpOperation = "sync"
)
