package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (R001, R007-R010)
	// ============================================

	CodeInvalidPattern: {
		Category:   CategoryConfig,
		Message:    "Invalid route pattern",
		Detail:     "A trailing wildcard (**) must be a whole segment and the last segment of the pattern.",
		Suggestion: "Write catch-all patterns as /prefix/**",
	},
	CodeRedirectLoop: {
		Category:   CategoryConfig,
		Message:    "Redirect loop",
		Detail:     "Following redirectToRoute from this route returns to a route already visited.",
		Suggestion: "Break the cycle in the redirectToRoute chain",
	},
	CodeInvalidRoute: {
		Category: CategoryConfig,
		Message:  "Invalid route definition",
		Detail:   "Routes need a label and a path, unique per language; layouts and panels need a component.",
	},
	CodeConfigNotFound: {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "No navrouter.json or navrouter.yaml was found.",
		Suggestion: "Run 'navrouter init' to create one",
	},
	CodeConfigInvalid: {
		Category:   CategoryConfig,
		Message:    "Invalid configuration",
		Suggestion: "Check the configuration file against the documented schema",
	},

	// ============================================
	// Runtime Errors (R002-R003)
	// ============================================

	CodeNotConfigured: {
		Category:   CategoryRuntime,
		Message:    "Router not configured",
		Detail:     "Routes must be registered before the current route can be resolved.",
		Suggestion: "Call ConfigureRoutes during application bootstrap",
	},
	CodeNoRouteFound: {
		Category:   CategoryRuntime,
		Message:    "No route found",
		Detail:     "The path matches no registered pattern and no not-found or home route caught it.",
		Suggestion: `Register a route labelled "not-found" or a home route at "/"`,
	},

	// ============================================
	// Validation Errors (R004-R005)
	// ============================================

	CodeDuplicateState: {
		Category: CategoryValidation,
		Message:  "Duplicate history state",
		Detail:   "The pushed state is identical to the current top of the history stack.",
	},
	CodeInvalidStateShape: {
		Category: CategoryValidation,
		Message:  "Invalid state shape",
		Detail:   "A history state may only carry the keys path, data and id.",
	},

	// ============================================
	// Storage Errors (R006)
	// ============================================

	CodeStorageCorruption: {
		Category: CategoryStorage,
		Message:  "Persisted history is corrupt",
		Detail:   "The stored history stack could not be decoded and was reset to empty.",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
