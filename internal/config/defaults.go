package config

// P4 defaults.
const (
	DefaultP4Binary           = "p4"
	DefaultP4LongDescriptions = false
	DefaultP4Timeout          = "0s"
)

// DefaultDefectPattern matches identifiers such as DE1234 or "de 98765".
const DefaultDefectPattern = `(?i)DE\s?\d{3,8}`

// Analysis defaults.
const (
	DefaultAnalysisWorkers    = 8
	DefaultAnalysisSkipVendor = false
)

// Report defaults.
const (
	DefaultReportDir      = "results"
	DefaultReportMinCount = 2
	DefaultReportTop      = 20
	DefaultReportPlot     = false
)

// Logging defaults.
const (
	DefaultLoggingLevel = "info"
	DefaultLoggingJSON  = false
)
