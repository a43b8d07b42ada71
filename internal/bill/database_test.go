package bill

import (
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveSession", func() {
		var (
			session *Session
			err     error
		)

		BeforeEach(func() {
			session = &Session{
				ID:           "test-id",
				Participants: []string{"Alice", "Bob"},
				Bill: &Bill{
					Items: []Item{
						{ID: "item-1", Name: "Pizza", PriceCents: 2000},
					},
					SubtotalCents: 2000,
					TaxCents:      200,
					TipCents:      300,
					TotalCents:    2500,
				},
				Allocations: map[string][]string{
					"item-1": {"Alice"},
				},
				ImageFile: "test-id_bill.jpg",
				ImageType: "image/jpeg",
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}
		})

		JustBeforeEach(func() {
			err = db.SaveSession(session)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should round-trip the session", func() {
				stored, getErr := db.GetSession("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(stored.Participants).To(Equal(session.Participants))
				Expect(stored.Bill.Items).To(Equal(session.Bill.Items))
				Expect(stored.Allocations).To(Equal(session.Allocations))
				Expect(stored.ImageFile).To(Equal(session.ImageFile))
			})
		})

		When("a session with the same ID already exists", func() {
			BeforeEach(func() {
				existing := &Session{ID: "test-id", Participants: []string{"Old"}}
				Expect(db.SaveSession(existing)).To(Succeed())
			})

			It("overwrites it", func() {
				Expect(err).NotTo(HaveOccurred())
				stored, getErr := db.GetSession("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(stored.Participants).To(Equal([]string{"Alice", "Bob"}))
			})
		})
	})

	Describe("GetSession", func() {
		When("the session does not exist", func() {
			It("returns ErrSessionNotFound", func() {
				_, err := db.GetSession("missing")
				Expect(errors.Is(err, ErrSessionNotFound)).To(BeTrue())
			})
		})
	})

	Describe("ListSessions", func() {
		When("no sessions exist", func() {
			It("returns an empty slice", func() {
				sessions, err := db.ListSessions()
				Expect(err).NotTo(HaveOccurred())
				Expect(sessions).To(BeEmpty())
			})
		})

		When("sessions exist", func() {
			BeforeEach(func() {
				Expect(db.SaveSession(&Session{ID: "a", Participants: []string{"Alice"}})).To(Succeed())
				Expect(db.SaveSession(&Session{ID: "b", Participants: []string{"Bob"}})).To(Succeed())
			})

			It("returns all of them", func() {
				sessions, err := db.ListSessions()
				Expect(err).NotTo(HaveOccurred())
				Expect(sessions).To(HaveLen(2))
			})
		})
	})

	Describe("DeleteSession", func() {
		BeforeEach(func() {
			Expect(db.SaveSession(&Session{ID: "doomed", Participants: []string{"Alice"}})).To(Succeed())
		})

		It("removes the session", func() {
			Expect(db.DeleteSession("doomed")).To(Succeed())
			_, err := db.GetSession("doomed")
			Expect(errors.Is(err, ErrSessionNotFound)).To(BeTrue())
		})
	})

	Describe("persistence across reopen", func() {
		It("retains sessions after close and reopen", func() {
			Expect(db.SaveSession(&Session{ID: "keep", Participants: []string{"Alice"}})).To(Succeed())
			Expect(db.Close()).To(Succeed())

			reopened, err := NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			stored, err := reopened.GetSession("keep")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Participants).To(Equal([]string{"Alice"}))
			db = nil
		})
	})
})
