package locking_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/locking"
)

// This spec covers end-to-end scenario 5 of spec.md §8: process A
// holds CacheWriter for a while; process B attempts to acquire it with
// a short timeout and must observe on_wait_start once, at least one
// on_retry, and finally on_timeout, in that order.
var _ = Describe("Lock wait observability", func() {
	var (
		dir        string
		controller *locking.Controller
		scope      locking.Scope
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		controller = locking.NewController(dir, locking.BackendAuto)
		scope = locking.CacheWriter()
	})

	It("reports wait_start, at least one retry, then timeout in order", func() {
		holder, err := controller.Acquire(scope, locking.Options{Timeout: locking.FiniteTimeout(5 * time.Second)})
		Expect(err).NotTo(HaveOccurred())
		defer holder.Release()

		rec := &locking.RecordingObserver{}
		start := time.Now()
		_, err = controller.Acquire(scope, locking.Options{
			Timeout:  locking.FiniteTimeout(300 * time.Millisecond),
			Observer: rec,
		})
		elapsed := time.Since(start)

		Expect(err).To(HaveOccurred())
		Expect(kopierr.KindOf(err)).To(Equal(kopierr.KindLockTimeout))
		Expect(elapsed).To(BeNumerically("<", 2*time.Second))

		Expect(len(rec.Events)).To(BeNumerically(">=", 3))
		Expect(rec.Events[0]).To(Equal("wait_start:" + scope.Label()))
		Expect(rec.Events[len(rec.Events)-1]).To(Equal("timeout:" + scope.Label()))

		hasRetry := false
		for _, e := range rec.Events[1 : len(rec.Events)-1] {
			if e == "retry:"+scope.Label() {
				hasRetry = true
			}
		}
		Expect(hasRetry).To(BeTrue())
	})

	It("never both holders proceed: the loser either times out or acquires after release", func() {
		holder, err := controller.Acquire(scope, locking.Options{Timeout: locking.FiniteTimeout(time.Second)})
		Expect(err).NotTo(HaveOccurred())

		resultCh := make(chan error, 1)
		go func() {
			guard, err := controller.Acquire(scope, locking.Options{Timeout: locking.FiniteTimeout(2 * time.Second)})
			if err == nil {
				guard.Release()
			}
			resultCh <- err
		}()

		time.Sleep(100 * time.Millisecond)
		Expect(holder.Release()).To(Succeed())

		Eventually(resultCh, 3*time.Second).Should(Receive(BeNil()))
	})
})
