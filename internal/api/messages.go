package api

import "time"

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type VerifyRequest struct {
	Token string `json:"token"`
	// SourceAddress overrides the peer address, for gateways that verify
	// on behalf of a consumer. Honored only for proxy and admin callers.
	SourceAddress string `json:"source_address,omitempty"`
	UserAgent     string `json:"user_agent,omitempty"`
}

// PublicProduct is the product view returned to anonymous verifiers.
type PublicProduct struct {
	ID                string     `json:"id"`
	ProductName       string     `json:"product_name"`
	VendorName        string     `json:"vendor_name,omitempty"`
	Category          string     `json:"category,omitempty"`
	BatchID           string     `json:"batch_id,omitempty"`
	ManufactureDate   *time.Time `json:"manufacture_date,omitempty"`
	ExpiresAt         time.Time  `json:"expires_at"`
	VerificationCount int64      `json:"verification_count"`
	LastVerifiedAt    *time.Time `json:"last_verified_at,omitempty"`
}

type VerifyResponse struct {
	Outcome  string         `json:"outcome"`
	Message  string         `json:"message"`
	Expired  bool           `json:"expired"`
	Flagged  bool           `json:"flagged"`
	Location string         `json:"location"`
	Reasons  []string       `json:"reasons,omitempty"`
	Product  *PublicProduct `json:"product,omitempty"`
}

type Product struct {
	ID                string     `json:"id"`
	VendorID          string     `json:"vendor_id"`
	VendorName        string     `json:"vendor_name,omitempty"`
	ProductName       string     `json:"product_name"`
	Description       string     `json:"description,omitempty"`
	Category          string     `json:"category,omitempty"`
	BatchID           string     `json:"batch_id,omitempty"`
	ManufactureDate   *time.Time `json:"manufacture_date,omitempty"`
	ExpiresAt         time.Time  `json:"expires_at"`
	Token             string     `json:"token"`
	QRImageURL        string     `json:"qr_image_url"`
	LifecycleState    string     `json:"lifecycle_state"`
	VerificationCount int64      `json:"verification_count"`
	LastVerifiedAt    *time.Time `json:"last_verified_at,omitempty"`
	IsFlagged         bool       `json:"is_flagged"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type CreateProductRequest struct {
	// VendorID is taken from the caller for vendors; admins must set it.
	VendorID        string     `json:"vendor_id,omitempty"`
	VendorName      string     `json:"vendor_name,omitempty"`
	ProductName     string     `json:"product_name"`
	Description     string     `json:"description,omitempty"`
	Category        string     `json:"category,omitempty"`
	BatchID         string     `json:"batch_id,omitempty"`
	ManufactureDate *time.Time `json:"manufacture_date,omitempty"`
	ExpiresAt       time.Time  `json:"expires_at"`
}

type ProductResponse struct {
	Product Product `json:"product"`
}

type GetProductRequest struct {
	ID string `json:"id"`
}

type ListProductsRequest struct {
	// VendorID filters for admins; vendors always see their own products.
	VendorID string `json:"vendor_id,omitempty"`
}

type ListProductsResponse struct {
	Products []Product `json:"products"`
}

type RotateTokenRequest struct {
	ProductID string `json:"product_id"`
}

type RotateTokenResponse struct {
	Token      string  `json:"token"`
	QRImageURL string  `json:"qr_image_url"`
	Product    Product `json:"product"`
}

type SetLifecycleStateRequest struct {
	// Ref is a product ID or a token.
	Ref     string `json:"ref"`
	State   string `json:"state"`
	Flagged *bool  `json:"flagged,omitempty"`
}

type Scan struct {
	ProductID     string    `json:"product_id,omitempty"`
	Token         string    `json:"token"`
	Outcome       string    `json:"outcome"`
	SourceAddress string    `json:"source_address"`
	Location      string    `json:"location"`
	UserAgent     string    `json:"user_agent,omitempty"`
	ScannedAt     time.Time `json:"scanned_at"`
}

type ListScansRequest struct {
	ProductID string `json:"product_id"`
	Limit     int    `json:"limit,omitempty"`
}

type ListScansResponse struct {
	Scans []Scan `json:"scans"`
}

type ListVendorScansRequest struct {
	// VendorID selects a vendor for admins; empty lists every vendor.
	// Vendors may only name themselves.
	VendorID string `json:"vendor_id,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// ListScansByTokenRequest reaches rows of tokens that were rotated away.
type ListScansByTokenRequest struct {
	Token string `json:"token"`
	Limit int    `json:"limit,omitempty"`
}

type DashboardStatsRequest struct {
	VendorID string `json:"vendor_id,omitempty"`
}

type DashboardStatsResponse struct {
	VendorID        string           `json:"vendor_id,omitempty"`
	Products        int64            `json:"products"`
	FlaggedProducts int64            `json:"flagged_products"`
	ProductsByState map[string]int64 `json:"products_by_state"`
	Scans           int64            `json:"scans"`
	ScansByOutcome  map[string]int64 `json:"scans_by_outcome"`
}

type FakeReport struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	VendorID      string    `json:"vendor_id"`
	Token         string    `json:"token"`
	Reason        string    `json:"reason"`
	Details       string    `json:"details,omitempty"`
	ReporterName  string    `json:"reporter_name,omitempty"`
	ReporterEmail string    `json:"reporter_email,omitempty"`
	SourceAddress string    `json:"source_address"`
	Status        string    `json:"status"`
	AdminNotes    string    `json:"admin_notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ListFakeReportsRequest struct {
	Status string `json:"status,omitempty"`
	Page   int    `json:"page,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type ListFakeReportsResponse struct {
	Reports []FakeReport `json:"reports"`
	Total   int          `json:"total"`
}

type UpdateFakeReportRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

type FakeReportResponse struct {
	Report FakeReport `json:"report"`
}

// PublicScan is a scan as shown to anonymous users.
type PublicScan struct {
	Outcome   string    `json:"outcome"`
	Location  string    `json:"location"`
	ScannedAt time.Time `json:"scanned_at"`
}

type PublicScansResponse struct {
	Scans []PublicScan `json:"scans"`
}

// ReportFakeRequest is the body of the public counterfeit report endpoint.
type ReportFakeRequest struct {
	Reason        string `json:"reason"`
	Details       string `json:"details,omitempty"`
	ReporterName  string `json:"reporter_name,omitempty"`
	ReporterEmail string `json:"reporter_email,omitempty"`
}

type ReportFakeResponse struct {
	ReportID  string `json:"report_id"`
	Duplicate bool   `json:"duplicate"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
