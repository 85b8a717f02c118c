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
	// Element Errors (E101-E199)
	// ============================================

	"E101": {
		Category: CategoryElement,
		Message:  "Invalid element document",
		Detail:   "The element document could not be parsed as YAML or JSON.",
	},
	"E102": {
		Category: CategoryElement,
		Message:  "Element is missing a type",
		Detail:   "Every element node needs a non-empty type: a host tag name such as div or span.",
	},
	"E103": {
		Category: CategoryElement,
		Message:  "Invalid element type",
		Detail:   "Element types must start with a letter and contain only letters, digits and dashes.",
	},
	"E104": {
		Category: CategoryElement,
		Message:  "Invalid child node",
		Detail:   "A child must be an element mapping or a scalar that becomes a text node.",
	},
	"E105": {
		Category: CategoryElement,
		Message:  "Element document not found",
		Detail:   "The element document file does not exist or cannot be read.",
	},

	// ============================================
	// Config Errors (E201-E299)
	// ============================================

	"E201": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "fiber.json could not be read or parsed.",
	},
	"E202": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No fiber.json was found in the project directory.",
	},
	"E203": {
		Category: CategoryConfig,
		Message:  "Invalid scheduler timing",
		Detail:   "Scheduler durations must parse with time.ParseDuration and be positive.",
	},
	"E204": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "Port must be between 0 and 65535.",
	},
	"E205": {
		Category: CategoryConfig,
		Message:  "Invalid log settings",
		Detail:   "Log level must be debug, info, warn or error and format must be text or json.",
	},

	// ============================================
	// Reconciler Errors (E301-E399)
	// ============================================

	"E301": {
		Category: CategoryReconciler,
		Message:  "Fiber has no parent",
		Detail:   "A non-root fiber reached commit without a return fiber holding a host node.",
	},
	"E302": {
		Category: CategoryReconciler,
		Message:  "Host node is not a child of the given parent",
		Detail:   "The host binding was asked to remove or anchor on a node under a parent that does not own it.",
	},
	"E303": {
		Category: CategoryReconciler,
		Message:  "Unknown host node",
		Detail:   "The host binding received a node handle it did not create.",
	},

	// ============================================
	// Protocol Errors (E351-E399)
	// ============================================

	"E351": {
		Category: CategoryProtocol,
		Message:  "Invalid patch frame",
		Detail:   "The patch frame is truncated, oversized or contains an unknown operation.",
	},

	// ============================================
	// Server Errors (E401-E499)
	// ============================================

	"E401": {
		Category: CategoryServer,
		Message:  "Invalid render request",
		Detail:   "The request body must be an element document in YAML or JSON.",
	},
	"E402": {
		Category: CategoryServer,
		Message:  "Snapshot publish failed",
		Detail:   "The rendered snapshot could not be uploaded to object storage.",
	},
	"E403": {
		Category: CategoryServer,
		Message:  "Publishing is not configured",
		Detail:   "Set publish.bucket in fiber.json or pass --bucket to publish snapshots.",
	},
	"E404": {
		Category: CategoryServer,
		Message:  "Patch stream is read-only",
		Detail:   "Stream clients receive patch frames and must not send messages.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
