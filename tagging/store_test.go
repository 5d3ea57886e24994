package tagging_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/shepherdtags/tagging"
)

// coldMiss drives one full miss-path access: a failed Access, followed
// by FindVictim and InsertBlock, exactly the sequence an external
// cache controller is expected to perform.
func coldMiss(store *tagging.OptTagStore, address uint64, owner int) *tagging.Block {
	_, ok := store.FindBlock(address)
	Expect(ok).To(BeFalse())

	victim := store.FindVictim(address, &[]tagging.Writeback{})
	store.InsertBlock(address, victim, owner)

	return victim
}

var _ = Describe("OptTagStore", func() {
	Describe("construction", func() {
		It("rejects non-positive associativity", func() {
			_, err := tagging.NewOptTagStore(1, 64, 0, 10, 1)
			Expect(err).To(HaveOccurred())
		})

		It("rejects non-positive hit latency", func() {
			_, err := tagging.NewOptTagStore(1, 64, 4, 0, 1)
			Expect(err).To(HaveOccurred())
		})

		It("rejects num_sets_sc outside (0, assoc)", func() {
			_, err := tagging.NewOptTagStore(1, 64, 4, 10, 0)
			Expect(err).To(HaveOccurred())

			_, err = tagging.NewOptTagStore(1, 64, 4, 10, 4)
			Expect(err).To(HaveOccurred())
		})

		It("propagates address-decoder errors", func() {
			_, err := tagging.NewOptTagStore(1, 3, 4, 10, 1)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("cold fills only", func() {
		var store *tagging.OptTagStore

		BeforeEach(func() {
			var err error
			store, err = tagging.NewOptTagStore(1, 64, 4, 10, 2)
			Expect(err).NotTo(HaveOccurred())
		})

		It("fills all four slots and warms up", func() {
			coldMiss(store, 0x0000, 1)
			coldMiss(store, 0x1000, 1)
			coldMiss(store, 0x2000, 1)
			coldMiss(store, 0x3000, 1)

			stats := store.Stats().(*tagging.DefaultStats)
			Expect(stats.TagsInUse()).To(Equal(4))
			Expect(stats.WarmedUp()).To(BeTrue())

			set := store.SetAt(0)
			Expect(set.CheckInvariants()).NotTo(HaveOccurred())

			scCount, mcCount := 0, 0
			for i := 0; i < set.Assoc; i++ {
				Expect(set.Blocks[i].Valid).To(BeTrue())

				if set.SCFlag[i] {
					scCount++
				} else {
					mcCount++
				}
			}

			Expect(scCount).To(Equal(2))
			Expect(mcCount).To(Equal(2))
		})
	})

	Describe("hit updates the count matrix", func() {
		var store *tagging.OptTagStore

		BeforeEach(func() {
			var err error
			store, err = tagging.NewOptTagStore(1, 64, 4, 10, 2)
			Expect(err).NotTo(HaveOccurred())

			coldMiss(store, 0x0000, 1)
			coldMiss(store, 0x1000, 1)
			coldMiss(store, 0x2000, 1)
			coldMiss(store, 0x3000, 1)
		})

		It("increments ref_count and stamps every unfilled FIFO-head entry", func() {
			blk, ok := store.FindBlock(0x0000)
			Expect(ok).To(BeTrue())
			before := blk.RefCount

			hitBlk, lat := store.Access(0x0000, 1)
			Expect(hitBlk).NotTo(BeNil())
			Expect(lat).To(Equal(store.GetHitLatency()))
			Expect(hitBlk.RefCount).To(Equal(before + 1))

			set := store.SetAt(0)
			Expect(set.CheckInvariants()).NotTo(HaveOccurred())
		})

		It("reports a miss for an absent tag", func() {
			blk, lat := store.Access(0xF000, 1)
			Expect(blk).To(BeNil())
			Expect(lat).To(Equal(store.GetHitLatency()))
		})

		It("uses the injected clock to report extra fill latency", func() {
			blk, ok := store.FindBlock(0x0000)
			Expect(ok).To(BeTrue())
			blk.WhenReady = 100

			store.SetClock(constClock(10))

			_, lat := store.Access(0x0000, 1)
			Expect(lat).To(Equal(90))
		})
	})

	Describe("eviction once every slot has been used", func() {
		var store *tagging.OptTagStore

		BeforeEach(func() {
			var err error
			store, err = tagging.NewOptTagStore(1, 64, 4, 10, 2)
			Expect(err).NotTo(HaveOccurred())

			coldMiss(store, 0x0000, 1)
			coldMiss(store, 0x1000, 1)
			coldMiss(store, 0x2000, 1)
			coldMiss(store, 0x3000, 1)
		})

		It("keeps tags_in_use at the array size and preserves invariants", func() {
			coldMiss(store, 0x4000, 1)

			stats := store.Stats().(*tagging.DefaultStats)
			Expect(stats.TagsInUse()).To(Equal(4))
			Expect(stats.Replacements(0)).To(Equal(1))

			set := store.SetAt(0)
			Expect(set.CheckInvariants()).NotTo(HaveOccurred())

			valid := 0
			for i := 0; i < set.Assoc; i++ {
				if set.Blocks[i].Valid {
					valid++
				}
			}
			Expect(valid).To(Equal(4))
		})
	})

	Describe("SC-only eviction (num_sets_sc = assoc - 1)", func() {
		var store *tagging.OptTagStore

		BeforeEach(func() {
			var err error
			store, err = tagging.NewOptTagStore(1, 64, 4, 10, 3)
			Expect(err).NotTo(HaveOccurred())

			coldMiss(store, 0x0000, 1)
			coldMiss(store, 0x1000, 1)
			coldMiss(store, 0x2000, 1)
			coldMiss(store, 0x3000, 1)
		})

		It("selects a victim without crossing the MC boundary", func() {
			set := store.SetAt(0)
			Expect(set.MCAssoc).To(Equal(1))

			coldMiss(store, 0x4000, 1)

			Expect(set.CheckInvariants()).NotTo(HaveOccurred())

			stats := store.Stats().(*tagging.DefaultStats)
			Expect(stats.TagsInUse()).To(Equal(4))
		})
	})

	Describe("invalidate then reinsert", func() {
		var store *tagging.OptTagStore

		BeforeEach(func() {
			var err error
			store, err = tagging.NewOptTagStore(1, 64, 4, 10, 2)
			Expect(err).NotTo(HaveOccurred())

			coldMiss(store, 0x0000, 1)
			coldMiss(store, 0x1000, 1)
			coldMiss(store, 0x2000, 1)
			coldMiss(store, 0x3000, 1)
		})

		It("frees a slot for the next miss and rotates the FIFO back", func() {
			blk, ok := store.FindBlock(0x0000)
			Expect(ok).To(BeTrue())

			set := store.SetAt(0)
			before := set.LeastImmSCPtr

			store.Invalidate(blk)

			stats := store.Stats().(*tagging.DefaultStats)
			Expect(stats.TagsInUse()).To(Equal(3))
			Expect(set.LeastImmSCPtr).To(Equal((before - 1 + set.SCAssoc) % set.SCAssoc))

			coldMiss(store, 0x9000, 2)

			Expect(stats.TagsInUse()).To(Equal(4))
			Expect(set.CheckInvariants()).NotTo(HaveOccurred())
		})

		It("panics when invalidating an already-invalid block", func() {
			blk, ok := store.FindBlock(0x0000)
			Expect(ok).To(BeTrue())

			store.Invalidate(blk)

			Expect(func() { store.Invalidate(blk) }).To(Panic())
		})
	})

	Describe("warmup latch", func() {
		It("latches exactly once, at the tick the array first fills", func() {
			store, err := tagging.NewOptTagStore(1, 64, 4, 10, 2)
			Expect(err).NotTo(HaveOccurred())
			store.SetClock(constClock(7))

			stats := store.Stats().(*tagging.DefaultStats)

			coldMiss(store, 0x0000, 1)
			Expect(stats.WarmedUp()).To(BeFalse())

			coldMiss(store, 0x1000, 1)
			coldMiss(store, 0x2000, 1)
			Expect(stats.WarmedUp()).To(BeFalse())

			coldMiss(store, 0x3000, 1)
			Expect(stats.WarmedUp()).To(BeTrue())
			Expect(stats.WarmupCycle()).To(Equal(uint64(7)))

			coldMiss(store, 0x4000, 1)
			Expect(stats.WarmupCycle()).To(Equal(uint64(7)))
		})
	})

	Describe("ClearLocks and CleanupRefs", func() {
		It("clears every block's lock flag", func() {
			store, err := tagging.NewOptTagStore(1, 64, 4, 10, 2)
			Expect(err).NotTo(HaveOccurred())

			blk := coldMiss(store, 0x0000, 1)
			blk.Locked = true

			store.ClearLocks()

			Expect(blk.Locked).To(BeFalse())
		})

		It("folds every resident block's ref_count into the stats host", func() {
			ctrl := gomock.NewController(GinkgoT())
			defer ctrl.Finish()

			mockStats := NewMockStatsHost(ctrl)
			mockStats.EXPECT().IncTagsInUse(gomock.Any()).AnyTimes()
			mockStats.EXPECT().TagsInUse().Return(0).AnyTimes()
			mockStats.EXPECT().WarmedUp().Return(false).AnyTimes()
			mockStats.EXPECT().IncOccupancy(gomock.Any(), gomock.Any()).AnyTimes()

			store, err := tagging.NewOptTagStore(1, 64, 4, 10, 2)
			Expect(err).NotTo(HaveOccurred())
			store.SetStatsHost(mockStats)

			blk := coldMiss(store, 0x0000, 1)
			blk.RefCount = 3

			mockStats.EXPECT().AddTotalRefs(3)
			mockStats.EXPECT().AddSampledRefs(1)

			store.CleanupRefs()
		})
	})
})

type constClock uint64

func (c constClock) Now() uint64 { return uint64(c) }
