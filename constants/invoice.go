package constants

// Sentinel values used when a field could not be determined.
const (
	Unknown      = "UNKNOWN"
	ErrorReading = "ERROR-READING"
	ErrorNumber  = "ERROR"
	NotExtracted = "Não foi possível extrair"
)

// Detected formats besides the name of the text backend that succeeded.
const (
	FormatStandard = "standard"
	FormatOverride = "fallback-hardcoded"
	FormatError    = "error"
)

const (
	// MinAcceptedTextLen is the accumulated length a backend must exceed to stop the cascade.
	MinAcceptedTextLen = 100
	// MinReadableTextLen below which a document is treated as unreadable.
	MinReadableTextLen = 50
	// MaxDescriptionLen bounds the service description kept on an invoice.
	MaxDescriptionLen = 500
	// FallbackConfidence is reported when no backend reached MinAcceptedTextLen.
	FallbackConfidence = 0.3
)
