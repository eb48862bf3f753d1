package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *PubtimeError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(field, reason string) *PubtimeError {
	return New(CategoryConfig, SeverityFatal, "invalid configuration: "+field+" "+reason).
		WithContext("field", field).
		WithContext("reason", reason)
}

func ConfigParseFailed(path string, cause error) *PubtimeError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "failed to parse configuration").
		WithContext("path", path)
}

// Corpus errors

func CorpusUnreadable(root string, cause error) *PubtimeError {
	return Wrap(cause, CategoryCorpus, SeverityFatal, "corpus directory cannot be read").
		WithContext("root", root)
}

func CorpusWriteFailed(failed int, cause error) *PubtimeError {
	return Wrap(cause, CategoryFileSystem, SeverityError, "failed to persist publish times").
		WithContext("failed_entries", failed)
}

// Validation results

// ViolationsFound marks a validation run that completed but reported violations.
// It is not a crash; the CLI maps it to a dedicated exit code so it can gate publishing.
func ViolationsFound(count int) *PubtimeError {
	return New(CategoryValidation, SeverityError, "timeline violations found").
		WithContext("violations", count)
}

// History errors

func HistoryUnavailable(path string, cause error) *PubtimeError {
	return Wrap(cause, CategoryHistory, SeverityWarning, "schedule history store unavailable").
		WithContext("path", path)
}

// Notification errors

func NotifyFailed(subject string, cause error) *PubtimeError {
	return Wrap(cause, CategoryNetwork, SeverityWarning, "failed to publish violation report").
		WithContext("subject", subject)
}

// Internal errors

func InternalError(message string, cause error) *PubtimeError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
