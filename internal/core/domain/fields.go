package domain

// Category groups parsed fields by the kind of data they describe.
// Freshness windows are tracked per (source, category).
type Category string

const (
	// CategoryMortgage covers mortgages, assignments, and discharges.
	CategoryMortgage Category = "mortgage"

	// CategoryForeclosure covers lis pendens, judgments, and auction notices.
	CategoryForeclosure Category = "foreclosure"

	// CategoryTax covers assessments and tax liens.
	CategoryTax Category = "tax"
)

// Categories lists all known data categories.
func Categories() []Category {
	return []Category{CategoryMortgage, CategoryForeclosure, CategoryTax}
}

// CategoryForInstrument maps an instrument type onto a data category.
func CategoryForInstrument(instrumentType string) Category {
	switch instrumentType {
	case "LIS PENDENS", "FORECLOSURE DEED", "JUDGMENT", "NOTICE OF SALE",
		"ORDER OF NOTICE", "CERTIFICATE OF ENTRY":
		return CategoryForeclosure
	case "TAX LIEN", "TAX TAKING", "ASSESSMENT", "MUNICIPAL LIEN":
		return CategoryTax
	default:
		return CategoryMortgage
	}
}

// Confidence indicates which extraction path produced the fields.
type Confidence string

const (
	// ConfidenceText means the fields came from the document's text layer.
	ConfidenceText Confidence = "text"

	// ConfidenceOCR means the fields came from optical character recognition
	// of a rasterised rendering.
	ConfidenceOCR Confidence = "ocr"
)

// ParsedFields is the output of document parsing. Any field may be absent;
// absence is a valid, non-error state (a tax record has no mortgage fields).
type ParsedFields struct {
	// LoanAmount is the mortgage principal in dollars.
	LoanAmount *float64 `json:"loan_amount,omitempty"`

	// InterestRate is the annual rate as a fraction (5.25% -> 0.0525).
	InterestRate *float64 `json:"interest_rate,omitempty"`

	// TermMonths is the loan term in months.
	TermMonths *int `json:"term_months,omitempty"`

	// Lender is the mortgage holder's name.
	Lender string `json:"lender,omitempty"`

	// Parties are the named parties (grantor/grantee, plaintiff/defendant).
	Parties []string `json:"parties,omitempty"`

	// JudgmentAmount is the foreclosure judgment in dollars.
	JudgmentAmount *float64 `json:"judgment_amount,omitempty"`

	// AuctionDate is the scheduled auction date (canonical YYYY-MM-DD).
	AuctionDate string `json:"auction_date,omitempty"`

	// AssessedTotal, AssessedLand and AssessedBuilding are tax assessments.
	AssessedTotal    *float64 `json:"assessed_total,omitempty"`
	AssessedLand     *float64 `json:"assessed_land,omitempty"`
	AssessedBuilding *float64 `json:"assessed_building,omitempty"`

	// TaxAmount is the annual tax bill in dollars.
	TaxAmount *float64 `json:"tax_amount,omitempty"`

	// Confidence records which extraction path produced the fields.
	Confidence Confidence `json:"confidence,omitempty"`
}

// Empty reports whether no field was extracted. An empty result is still
// recorded in provenance; it is not a failure.
func (f *ParsedFields) Empty() bool {
	return f.LoanAmount == nil && f.InterestRate == nil && f.TermMonths == nil &&
		f.Lender == "" && len(f.Parties) == 0 && f.JudgmentAmount == nil &&
		f.AuctionDate == "" && f.AssessedTotal == nil && f.AssessedLand == nil &&
		f.AssessedBuilding == nil && f.TaxAmount == nil
}

// MonthlyPayment returns the principal-and-interest payment under standard
// amortisation, or nil when the inputs are incomplete.
func (f *ParsedFields) MonthlyPayment() *float64 {
	if f.LoanAmount == nil || f.InterestRate == nil || f.TermMonths == nil || *f.TermMonths == 0 {
		return nil
	}
	principal := *f.LoanAmount
	monthlyRate := *f.InterestRate / 12
	n := float64(*f.TermMonths)

	var payment float64
	if monthlyRate == 0 {
		payment = principal / n
	} else {
		pow := 1.0
		for i := 0; i < *f.TermMonths; i++ {
			pow *= 1 + monthlyRate
		}
		payment = principal * monthlyRate * pow / (pow - 1)
	}
	return &payment
}
