package bill

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ComputeSplit", func() {
	var (
		b            *Bill
		allocations  map[string][]string
		participants []string
		split        *Split
		err          error
	)

	BeforeEach(func() {
		b = &Bill{
			Items: []Item{
				{ID: "item-pizza", Name: "Pizza", PriceCents: 2000},
				{ID: "item-soda", Name: "Soda", PriceCents: 400},
			},
			SubtotalCents: 2400,
			TaxCents:      200,
			TipCents:      300,
			TotalCents:    2900,
		}
		allocations = map[string][]string{
			"item-pizza": {"Alice", "Bob"},
			"item-soda":  {"Alice"},
		}
		participants = []string{"Alice", "Bob"}
	})

	JustBeforeEach(func() {
		split, err = ComputeSplit(b, allocations, participants)
	})

	When("every item is allocated", func() {
		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("divides each item among its sharers", func() {
			Expect(split.Individual["Alice"]).To(BeNumerically("==", 14.00))
			Expect(split.Individual["Bob"]).To(BeNumerically("==", 10.00))
		})

		It("splits tax and tip evenly across all participants", func() {
			Expect(split.PerPersonShare).To(BeNumerically("==", 2.50))
		})

		It("adds the tax and tip share to each final cost", func() {
			Expect(split.Final["Alice"]).To(BeNumerically("==", 16.50))
			Expect(split.Final["Bob"]).To(BeNumerically("==", 12.50))
		})

		It("conserves the sum of item prices across individual costs", func() {
			var sum float64
			for _, cost := range split.Individual {
				sum += cost
			}
			Expect(sum).To(BeNumerically("~", 24.00, 0.01*float64(len(b.Items))))
		})
	})

	When("an item has no sharers", func() {
		BeforeEach(func() {
			allocations["item-soda"] = []string{}
		})

		It("contributes nothing to any participant", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(split.Individual["Alice"]).To(BeNumerically("==", 10.00))
			Expect(split.Individual["Bob"]).To(BeNumerically("==", 10.00))
		})
	})

	When("an item is missing from the allocation map entirely", func() {
		BeforeEach(func() {
			delete(allocations, "item-soda")
		})

		It("is treated the same as an empty sharer set", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(split.Individual["Alice"]).To(BeNumerically("==", 10.00))
		})
	})

	When("a price does not divide evenly among sharers", func() {
		BeforeEach(func() {
			b.Items = []Item{{ID: "item-wine", Name: "Wine", PriceCents: 1000}}
			b.TaxCents = 0
			b.TipCents = 0
			allocations = map[string][]string{
				"item-wine": {"Alice", "Bob", "Carol"},
			}
			participants = []string{"Alice", "Bob", "Carol"}
		})

		It("rounds each cost to two decimals for display", func() {
			Expect(err).NotTo(HaveOccurred())
			for _, p := range participants {
				Expect(split.Individual[p]).To(BeNumerically("==", 3.33))
			}
		})
	})

	When("tax plus tip is 9.00 across three participants", func() {
		BeforeEach(func() {
			b.TaxCents = 400
			b.TipCents = 500
			participants = []string{"Alice", "Bob", "Carol"}
		})

		It("gives each participant exactly 3.00", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(split.PerPersonShare).To(BeNumerically("==", 3.00))
		})

		It("includes participants who share no items", func() {
			Expect(split.Individual["Carol"]).To(BeNumerically("==", 0.00))
			Expect(split.Final["Carol"]).To(BeNumerically("==", 3.00))
		})
	})

	When("a sharer is not in the participant set", func() {
		BeforeEach(func() {
			allocations["item-soda"] = []string{"Mallory"}
		})

		It("skips the unknown sharer rather than inventing a participant", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(split.Individual).NotTo(HaveKey("Mallory"))
			Expect(split.Final).NotTo(HaveKey("Mallory"))
		})
	})

	When("there are no participants", func() {
		BeforeEach(func() {
			participants = []string{}
		})

		It("returns ErrNoParticipants", func() {
			Expect(err).To(MatchError(ErrNoParticipants))
		})
	})

	When("two items share a name but not an ID", func() {
		BeforeEach(func() {
			b.Items = []Item{
				{ID: "item-soda-1", Name: "Soda", PriceCents: 400},
				{ID: "item-soda-2", Name: "Soda", PriceCents: 400},
			}
			b.TaxCents = 0
			b.TipCents = 0
			allocations = map[string][]string{
				"item-soda-1": {"Alice"},
				"item-soda-2": {"Bob"},
			}
		})

		It("keeps their allocations independent", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(split.Individual["Alice"]).To(BeNumerically("==", 4.00))
			Expect(split.Individual["Bob"]).To(BeNumerically("==", 4.00))
		})
	})
})

var _ = Describe("Bill", func() {
	Describe("Recalculate", func() {
		It("derives the total from subtotal, tax and tip regardless of the prior total", func() {
			b := &Bill{
				SubtotalCents: 1000,
				TaxCents:      100,
				TipCents:      200,
				TotalCents:    9999,
			}
			b.Recalculate()
			Expect(b.TotalCents).To(Equal(1300))
		})
	})
})
