package constants

// ScanStatus is the canonical status for a receipt scan as it moves through
// the pipeline.
type ScanStatus string

// Stable values; logged and returned to clients as-is.
const (
	ScanStatusRunning   ScanStatus = "RUNNING"    // in progress
	ScanStatusOCROK     ScanStatus = "OCR_OK"     // stage 1 completed (text extracted)
	ScanStatusExtractOK ScanStatus = "EXTRACT_OK" // stage 2 completed (items extracted)
	ScanStatusFailed    ScanStatus = "FAILED"     // terminal failure
)
