package errinfo

// ErrorInfo is the structured error payload attached to RPC error responses.
type ErrorInfo struct {
	ErrorCode  string   `json:"error_code"`
	Phase      string   `json:"phase,omitempty"`
	Retryable  bool     `json:"retryable"`
	Actions    []string `json:"actions,omitempty"`
	ProviderID string   `json:"provider_id,omitempty"`
	ModelID    string   `json:"model_id,omitempty"`
	DocumentID string   `json:"document_id,omitempty"`
	ItemIndex  int      `json:"item_index,omitempty"`
	Detail     string   `json:"detail,omitempty"`
}

const (
	CodeProviderNotConfigured = "PROVIDER_NOT_CONFIGURED"
	CodeProviderAuthFailed    = "PROVIDER_AUTH_FAILED"
	CodeProviderUnavailable   = "PROVIDER_UNAVAILABLE"
	CodeProviderRateLimited   = "PROVIDER_RATE_LIMITED"
	CodeNetworkUnavailable    = "NETWORK_UNAVAILABLE"
	CodeEgressBlocked         = "EGRESS_BLOCKED_BY_POLICY"
	CodeNoSuggestions         = "NO_SUGGESTIONS"
	CodeSpanNotFound          = "SPAN_NOT_FOUND"
	CodeSessionActive         = "SESSION_ACTIVE"
	CodeSessionNotActive      = "SESSION_NOT_ACTIVE"
	CodeDialogClosed          = "DIALOG_CLOSED"
	CodeDocumentNotFound      = "DOCUMENT_NOT_FOUND"
	CodeDocumentNotLoaded     = "DOCUMENT_NOT_LOADED"
	CodeNoSelection           = "NO_SELECTION"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeFileReadFailed        = "FILE_READ_FAILED"
	CodeFileWriteFailed       = "FILE_WRITE_FAILED"
)

const (
	ActionRetry        = "retry"
	ActionOpenSettings = "open_settings"
	ActionSelectText   = "select_text"
)

const (
	PhaseProviders = "providers"
	PhaseDocuments = "documents"
	PhaseReview    = "review"
	PhaseDialog    = "dialog"
	PhaseSettings  = "settings"
)

func ProviderNotConfigured(phase string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeProviderNotConfigured,
		Phase:     phase,
		Retryable: false,
		Actions:   []string{ActionOpenSettings},
	}
}

func ProviderAuthFailed(phase string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeProviderAuthFailed,
		Phase:     phase,
		Retryable: false,
		Actions:   []string{ActionOpenSettings},
	}
}

func ProviderUnavailable(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeProviderUnavailable,
		Phase:     phase,
		Retryable: true,
		Actions:   []string{ActionRetry},
		Detail:    detail,
	}
}

func ProviderRateLimited(phase string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeProviderRateLimited,
		Phase:     phase,
		Retryable: true,
		Actions:   []string{ActionRetry},
	}
}

func NetworkUnavailable(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeNetworkUnavailable,
		Phase:     phase,
		Retryable: true,
		Actions:   []string{ActionRetry},
		Detail:    detail,
	}
}

func EgressBlocked(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeEgressBlocked,
		Phase:     phase,
		Retryable: false,
		Detail:    detail,
	}
}

func NoSuggestions(phase string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeNoSuggestions,
		Phase:     phase,
		Retryable: true,
		Actions:   []string{ActionRetry},
	}
}

func SessionActive(detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeSessionActive,
		Phase:     PhaseReview,
		Retryable: false,
		Detail:    detail,
	}
}

func SessionNotActive() *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeSessionNotActive,
		Phase:     PhaseReview,
		Retryable: false,
	}
}

func DialogClosed(detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeDialogClosed,
		Phase:     PhaseDialog,
		Retryable: false,
		Detail:    detail,
	}
}

func DocumentNotFound(documentID string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode:  CodeDocumentNotFound,
		Phase:      PhaseDocuments,
		Retryable:  false,
		DocumentID: documentID,
	}
}

func NoSelection(documentID string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode:  CodeNoSelection,
		Phase:      PhaseReview,
		Retryable:  false,
		Actions:    []string{ActionSelectText},
		DocumentID: documentID,
	}
}

func ValidationFailed(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeValidationFailed,
		Phase:     phase,
		Retryable: false,
		Detail:    detail,
	}
}

func FileReadFailed(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeFileReadFailed,
		Phase:     phase,
		Retryable: false,
		Detail:    detail,
	}
}

func FileWriteFailed(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeFileWriteFailed,
		Phase:     phase,
		Retryable: false,
		Detail:    detail,
	}
}
