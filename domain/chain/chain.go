package chain

import "greenlight/domain"

// CurrentApprover returns the approver whose turn it is to act, or false
// when the chain is exhausted. A zero-length chain is always exhausted.
func CurrentApprover(approvers []domain.Approver, currentStep int) (domain.Approver, bool) {
	if currentStep < 0 || currentStep >= len(approvers) {
		return domain.Approver{}, false
	}
	return approvers[currentStep], true
}

// IsFinalStep reports whether currentStep points at the last approver.
// Evaluated before any increment.
func IsFinalStep(approvers []domain.Approver, currentStep int) bool {
	return len(approvers) > 0 && currentStep == len(approvers)-1
}

func IsExhausted(approvers []domain.Approver, currentStep int) bool {
	return currentStep >= len(approvers)
}
