package bill

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalImageStore", func() {
	var (
		tmpDir string
		store  ImageStore
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		store, err = NewLocalImageStore(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			filename  string
			data      []byte
			savedName string
			err       error
		)

		BeforeEach(func() {
			filename = "session-1_bill.jpg"
			data = []byte("bill image bytes")
		})

		JustBeforeEach(func() {
			savedName, err = store.Save(filename, data)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the stored name", func() {
				Expect(savedName).To(Equal(filename))
			})

			It("should save the image to disk", func() {
				Expect(filepath.Join(tmpDir, filename)).To(BeAnExistingFile())
			})
		})

		When("the name carries path components", func() {
			BeforeEach(func() {
				filename = "../sneaky/bill.jpg"
			})

			It("strips them and keeps the image inside the store", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(savedName).To(Equal("bill.jpg"))
				Expect(filepath.Join(tmpDir, "bill.jpg")).To(BeAnExistingFile())
			})
		})
	})

	Describe("Get", func() {
		When("the image exists", func() {
			BeforeEach(func() {
				_, err := store.Save("bill.png", []byte("png bytes"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns its contents", func() {
				data, err := store.Get("bill.png")
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte("png bytes")))
			})
		})

		When("the image does not exist", func() {
			It("returns an error", func() {
				_, err := store.Get("missing.png")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Delete", func() {
		When("the image exists", func() {
			BeforeEach(func() {
				_, err := store.Save("bill.png", []byte("png bytes"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("removes it from disk", func() {
				Expect(store.Delete("bill.png")).To(Succeed())
				Expect(filepath.Join(tmpDir, "bill.png")).NotTo(BeAnExistingFile())
			})
		})

		When("the image does not exist", func() {
			It("returns an error", func() {
				Expect(store.Delete("missing.png")).NotTo(Succeed())
			})
		})
	})
})
