package state

// PendingAuthenticationState marks an attempt waiting for the shopper to authenticate.
// It offers no lifecycle methods; the follow-up status update resumes the flow from ProcessedState.
type PendingAuthenticationState struct {
	base
}
