package chain_test

import (
	"greenlight/domain"
	"greenlight/domain/chain"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Chain", func() {
	var approvers []domain.Approver

	BeforeEach(func() {
		approvers = []domain.Approver{
			{WorkflowID: 100, Ord: 0, UserID: 1, UserName: "alice", Type: domain.ApproverTypeUser},
			{WorkflowID: 100, Ord: 1, UserID: 2, UserName: "bob", Type: domain.ApproverTypeUser},
			{WorkflowID: 100, Ord: 2, UserID: 3, UserName: "carol", Type: domain.ApproverTypeUser},
		}
	})

	Describe("CurrentApprover", func() {
		Context("with a three approver chain", func() {
			It("should return the approver at the current step", func() {
				a, ok := chain.CurrentApprover(approvers, 0)
				Expect(ok).To(BeTrue())
				Expect(a.UserID).To(Equal(approvers[0].UserID))

				a, ok = chain.CurrentApprover(approvers, 2)
				Expect(ok).To(BeTrue())
				Expect(a.UserName).To(Equal("carol"))
			})

			It("should report exhaustion when the step passes the chain end", func() {
				_, ok := chain.CurrentApprover(approvers, 3)
				Expect(ok).To(BeFalse())

				_, ok = chain.CurrentApprover(approvers, -1)
				Expect(ok).To(BeFalse())
			})
		})

		Context("with a zero-length chain", func() {
			It("should be exhausted immediately", func() {
				_, ok := chain.CurrentApprover(nil, 0)
				Expect(ok).To(BeFalse())
				Expect(chain.IsExhausted(nil, 0)).To(BeTrue())
			})
		})
	})

	Describe("IsFinalStep", func() {
		It("should only be true at the last approver", func() {
			Expect(chain.IsFinalStep(approvers, 0)).To(BeFalse())
			Expect(chain.IsFinalStep(approvers, 1)).To(BeFalse())
			Expect(chain.IsFinalStep(approvers, 2)).To(BeTrue())
			Expect(chain.IsFinalStep(approvers, 3)).To(BeFalse())
		})

		It("should never be true for a zero-length chain", func() {
			Expect(chain.IsFinalStep(nil, 0)).To(BeFalse())
		})
	})

	Describe("IsExhausted", func() {
		It("should become true once the step reaches the chain length", func() {
			Expect(chain.IsExhausted(approvers, 2)).To(BeFalse())
			Expect(chain.IsExhausted(approvers, 3)).To(BeTrue())
		})
	})
})
