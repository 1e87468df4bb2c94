package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (S100-S119)
	// ============================================

	"S100": {
		Category: CategoryConfig,
		Message:  "Configuration file could not be read",
	},
	"S101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"S102": {
		Category: CategoryConfig,
		Message:  "Unsupported configuration format",
		Detail:   "Configuration files must end in .json, .yaml or .yml.",
	},

	// ============================================
	// Transport Errors (S200-S219)
	// ============================================

	"S200": {
		Category: CategoryTransport,
		Message:  "Remote command request failed",
	},
	"S201": {
		Category: CategoryTransport,
		Message:  "Remote command returned an unreadable response",
	},
	"S202": {
		Category: CategoryTransport,
		Message:  "WebSocket connection failed",
	},
	"S203": {
		Category: CategoryTransport,
		Message:  "Transport closed",
		Detail:   "The transport was closed before the response arrived.",
	},

	// ============================================
	// Store Errors (S300-S319)
	// ============================================

	"S300": {
		Category: CategoryStore,
		Message:  "Unknown update method",
	},
	"S301": {
		Category: CategoryStore,
		Message:  "Empty state key",
	},

	// ============================================
	// Attachment Errors (S400-S419)
	// ============================================

	"S400": {
		Category: CategoryAttachment,
		Message:  "Attachment storage failed",
	},
	"S401": {
		Category: CategoryAttachment,
		Message:  "Attachment type not accepted",
	},

	// ============================================
	// Localization Errors (S500-S519)
	// ============================================

	"S500": {
		Category: CategoryLocalize,
		Message:  "Translation catalog could not be loaded",
	},

	// ============================================
	// Markup Errors (S520-S539)
	// ============================================

	"S520": {
		Category: CategoryMarkup,
		Message:  "Markdown could not be rendered",
	},

	// ============================================
	// Builder Errors (S600-S619)
	// ============================================

	"S600": {
		Category: CategoryBuilder,
		Message:  "Unknown connection setting",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
