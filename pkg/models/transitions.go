package models

// allowedTransitions is the directed edge set of the lifecycle state
// machine. Expired and Terminated are terminal.
var allowedTransitions = map[AgreementStatus][]AgreementStatus{
	StatusPipeline:         {StatusDraft, StatusTerminated},
	StatusDraft:            {StatusLegalReview, StatusPipeline, StatusTerminated},
	StatusLegalReview:      {StatusSignaturePending, StatusDraft, StatusTerminated},
	StatusSignaturePending: {StatusSigned, StatusLegalReview, StatusTerminated},
	StatusSigned:           {StatusActive, StatusTerminated},
	StatusActive:           {StatusExpired, StatusTerminated},
	StatusExpired:          {},
	StatusTerminated:       {},
}

// CanTransition reports whether the edge from -> to exists. Same-status
// changes are not edges; callers treat them as no-ops before asking.
func CanTransition(from, to AgreementStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from the given status.
func AllowedTransitions(from AgreementStatus) []AgreementStatus {
	return allowedTransitions[from]
}

// Terminal reports whether the status has no outgoing edges.
func (s AgreementStatus) Terminal() bool {
	return len(allowedTransitions[s]) == 0 && s.Valid()
}
