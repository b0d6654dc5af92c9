package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DocumentType is the kind of a submitted document.
type DocumentType string

const (
	DocumentPrescription DocumentType = "prescription"
	DocumentBill         DocumentType = "bill"
	DocumentReport       DocumentType = "report"
)

func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentPrescription, DocumentBill, DocumentReport:
		return true
	}
	return false
}

// ParseDocumentType accepts the canonical lowercase names.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown document type %q", s)
	}
	return t, nil
}

// DetectDocumentType infers a document type from an uploaded file name.
// Names that match nothing are treated as bills.
func DetectDocumentType(filename string) DocumentType {
	name := strings.ToLower(filename)
	switch {
	case containsAny(name, "prescription", "rx", "presc"):
		return DocumentPrescription
	case containsAny(name, "bill", "invoice", "receipt"):
		return DocumentBill
	case containsAny(name, "report", "test", "lab", "diagnostic"):
		return DocumentReport
	}
	return DocumentBill
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// Medicine is one prescribed drug.
type Medicine struct {
	Name     string `json:"name"`
	Dosage   string `json:"dosage,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// PrescriptionData is the structured content extracted from a prescription.
type PrescriptionData struct {
	DoctorName            string     `json:"doctor_name,omitempty"`
	DoctorRegistration    string     `json:"doctor_registration,omitempty"`
	ClinicName            string     `json:"clinic_name,omitempty"`
	Date                  string     `json:"date,omitempty"`
	PatientName           string     `json:"patient_name,omitempty"`
	PatientAge            *int       `json:"patient_age,omitempty"`
	Diagnosis             string     `json:"diagnosis,omitempty"`
	Treatment             string     `json:"treatment,omitempty"`
	MedicinesPrescribed   []Medicine `json:"medicines_prescribed,omitempty"`
	InvestigationsAdvised []string   `json:"investigations_advised,omitempty"`
}

// LineItem is one billed service or product.
type LineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category,omitempty"`
}

// BillData is the structured content extracted from a bill or receipt.
// TotalAmount is nil when extraction could not find a total.
type BillData struct {
	HospitalName         string     `json:"hospital_name,omitempty"`
	BillNumber           string     `json:"bill_number,omitempty"`
	BillDate             string     `json:"bill_date,omitempty"`
	PatientName          string     `json:"patient_name,omitempty"`
	GSTNumber            string     `json:"gst_number,omitempty"`
	LineItems            []LineItem `json:"line_items,omitempty"`
	ConsultationFee      float64    `json:"consultation_fee,omitempty"`
	DiagnosticTestsTotal float64    `json:"diagnostic_tests_total,omitempty"`
	MedicinesTotal       float64    `json:"medicines_total,omitempty"`
	Subtotal             float64    `json:"subtotal,omitempty"`
	GSTAmount            float64    `json:"gst_amount,omitempty"`
	TotalAmount          *float64   `json:"total_amount,omitempty"`
	PaymentMode          string     `json:"payment_mode,omitempty"`
}

// Total returns the extracted total, or 0 when none was extracted.
func (b *BillData) Total() float64 {
	if b == nil || b.TotalAmount == nil {
		return 0
	}
	return *b.TotalAmount
}

// LabTest is one result line from a lab report.
type LabTest struct {
	TestName    string `json:"test_name"`
	Result      string `json:"result,omitempty"`
	NormalRange string `json:"normal_range,omitempty"`
	Unit        string `json:"unit,omitempty"`
}

// ReportData is the structured content extracted from a lab report.
type ReportData struct {
	LabName     string    `json:"lab_name,omitempty"`
	ReportDate  string    `json:"report_date,omitempty"`
	PatientName string    `json:"patient_name,omitempty"`
	Tests       []LabTest `json:"tests,omitempty"`
}

// Document is one submitted document with its extracted facts. Exactly one
// of Prescription, Bill or Report may be set, matching Type; all three are nil
// when nothing was extracted.
type Document struct {
	ID            string
	Type          DocumentType
	Filename      string
	OCRConfidence *float64

	Prescription *PrescriptionData
	Bill         *BillData
	Report       *ReportData
}

// HasExtractedData reports whether any structured data came with the document.
func (d Document) HasExtractedData() bool {
	return d.Prescription != nil || d.Bill != nil || d.Report != nil
}

// DocumentDate is the first non-empty of date, bill_date and report_date.
func (d Document) DocumentDate() string {
	switch {
	case d.Prescription != nil && d.Prescription.Date != "":
		return d.Prescription.Date
	case d.Bill != nil && d.Bill.BillDate != "":
		return d.Bill.BillDate
	case d.Report != nil && d.Report.ReportDate != "":
		return d.Report.ReportDate
	}
	return ""
}

// PatientName returns the patient name extracted from the document, if any.
func (d Document) PatientName() string {
	switch {
	case d.Prescription != nil:
		return d.Prescription.PatientName
	case d.Bill != nil:
		return d.Bill.PatientName
	case d.Report != nil:
		return d.Report.PatientName
	}
	return ""
}

type documentJSON struct {
	ID            string          `json:"id,omitempty"`
	Type          DocumentType    `json:"document_type"`
	Filename      string          `json:"filename,omitempty"`
	ExtractedData json.RawMessage `json:"extracted_data,omitempty"`
	OCRConfidence *float64        `json:"ocr_confidence,omitempty"`
}

// MarshalJSON emits the {document_type, extracted_data, ocr_confidence} shape.
func (d Document) MarshalJSON() ([]byte, error) {
	out := documentJSON{
		ID:            d.ID,
		Type:          d.Type,
		Filename:      d.Filename,
		OCRConfidence: d.OCRConfidence,
	}
	var extracted any
	switch {
	case d.Prescription != nil:
		extracted = d.Prescription
	case d.Bill != nil:
		extracted = d.Bill
	case d.Report != nil:
		extracted = d.Report
	}
	if extracted != nil {
		raw, err := json.Marshal(extracted)
		if err != nil {
			return nil, err
		}
		out.ExtractedData = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes extracted_data according to document_type. A missing
// document_type is inferred from the filename.
func (d *Document) UnmarshalJSON(data []byte) error {
	var in documentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	docType := in.Type
	if docType == "" {
		docType = DetectDocumentType(in.Filename)
	}
	if !docType.IsValid() {
		return fmt.Errorf("unknown document_type %q", in.Type)
	}
	if in.OCRConfidence != nil && (*in.OCRConfidence < 0 || *in.OCRConfidence > 1) {
		return fmt.Errorf("ocr_confidence must be within [0,1]")
	}

	*d = Document{
		ID:            in.ID,
		Type:          docType,
		Filename:      in.Filename,
		OCRConfidence: in.OCRConfidence,
	}

	if len(in.ExtractedData) == 0 || string(in.ExtractedData) == "null" {
		return nil
	}
	switch docType {
	case DocumentPrescription:
		d.Prescription = &PrescriptionData{}
		return decodeExtracted(in.ExtractedData, d.Prescription, docType)
	case DocumentBill:
		d.Bill = &BillData{}
		return decodeExtracted(in.ExtractedData, d.Bill, docType)
	case DocumentReport:
		d.Report = &ReportData{}
		return decodeExtracted(in.ExtractedData, d.Report, docType)
	}
	return nil
}

func decodeExtracted(raw json.RawMessage, target any, docType DocumentType) error {
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%s extracted_data: %w", docType, err)
	}
	return nil
}
