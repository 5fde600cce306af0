package relay

// Kind tags every terminal relay outcome. Each kind maps onto exactly one
// response shape at the HTTP boundary.
type Kind int

const (
	KindSuccess Kind = iota
	KindValidation
	KindNotFound
	KindIneligible
	KindConfiguration
	KindTransport
	KindSemantic
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindIneligible:
		return "ineligible"
	case KindConfiguration:
		return "configuration_error"
	case KindTransport:
		return "transport_error"
	case KindSemantic:
		return "semantic_error"
	case KindUnexpected:
		return "unexpected_error"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of one relay request. Only the fields that
// belong to the tagged kind are populated; the handler serializes them into
// the wire shape for that kind.
type Result struct {
	Kind Kind

	// Success fields.
	Message string
	Data    string

	// Error fields.
	Error      string
	Details    string
	Fields     map[string]bool // per-field presence flags, validation only
	Suggestion string
}

func successResult(body string) Result {
	return Result{
		Kind:    KindSuccess,
		Message: "Message sent to chat service successfully",
		Data:    body,
	}
}

func validationResult(fields map[string]bool) Result {
	return Result{
		Kind:   KindValidation,
		Error:  "session_id and message are required",
		Fields: fields,
	}
}

func notFoundResult(details string) Result {
	return Result{
		Kind:    KindNotFound,
		Error:   "Notebook not found",
		Details: details,
	}
}

func ineligibleResult() Result {
	return Result{
		Kind:    KindIneligible,
		Error:   "Notebook has no completed sources",
		Details: "Wait for at least one source to finish processing before sending messages",
	}
}

func configurationResult(missingKey string) Result {
	return Result{
		Kind:       KindConfiguration,
		Error:      "Chat service is not configured",
		Details:    "Missing required configuration value: " + missingKey,
		Suggestion: "Set " + missingKey + " in the service configuration",
	}
}

func unexpectedResult(details string) Result {
	return Result{
		Kind:    KindUnexpected,
		Error:   "Internal error while relaying message",
		Details: details,
	}
}
