package preview

// StatusCode is the single persisted indicator of pipeline outcome.
type StatusCode string

const (
	StatusUnsaved      StatusCode = "progress-unsaved"
	StatusSuccess      StatusCode = "success-process"
	StatusYAMLError    StatusCode = "error-yaml"
	StatusSwaggerError StatusCode = "error-swagger"
	StatusGeneralError StatusCode = "error-general"
)

// IsError reports whether s is one of the error statuses.
func (s StatusCode) IsError() bool {
	switch s {
	case StatusYAMLError, StatusSwaggerError, StatusGeneralError:
		return true
	default:
		return false
	}
}

func (s StatusCode) String() string { return string(s) }
