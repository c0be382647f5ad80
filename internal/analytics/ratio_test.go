package analytics_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/AbrarAhmad001/antigravity-budget/internal/analytics"
	summaryDatamodel "github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/summary"
)

var _ = Describe("Ratio", func() {
	It("should reduce to the smallest integer ratio", func() {
		sum := summaryDatamodel.Summary{TotalIncome: 2500, TotalExpense: 1000, TotalSavings: 500}

		Expect(analytics.Ratio(sum)).To(Equal("5:2:1"))
	})

	It("should round before reducing", func() {
		sum := summaryDatamodel.Summary{TotalIncome: 999.6, TotalExpense: 499.8, TotalSavings: 0}

		Expect(analytics.Ratio(sum)).To(Equal("2:1:0"))
	})

	It("should handle a single non-zero total", func() {
		sum := summaryDatamodel.Summary{TotalExpense: 300}

		Expect(analytics.Ratio(sum)).To(Equal("0:1:0"))
	})

	It("should be empty when everything is zero", func() {
		Expect(analytics.Ratio(summaryDatamodel.Summary{})).To(BeEmpty())
	})

	It("should render fractional totals that round to zero", func() {
		sum := summaryDatamodel.Summary{TotalIncome: 0.4, TotalExpense: 0.4, TotalSavings: 0.4}

		Expect(analytics.Ratio(sum)).To(Equal("0:0:0"))
	})

	It("should not reduce coprime totals", func() {
		sum := summaryDatamodel.Summary{TotalIncome: 7, TotalExpense: 3, TotalSavings: 5}

		Expect(analytics.Ratio(sum)).To(Equal("7:3:5"))
	})
})
