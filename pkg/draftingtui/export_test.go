package draftingtui

// GetErrorMessage is an exported alias of [getErrorMessage] for testing.
var GetErrorMessage = getErrorMessage
