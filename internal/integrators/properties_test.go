package integrators

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/odestep/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

var _ = Describe("Euler integrators", func() {
	var (
		zero dynamo.Derivative
		mesh []float64
	)

	BeforeEach(func() {
		zero = dynamo.DerivativeFunc(func(x dynamo.State, p dynamo.Values) float64 { return 0 })
		mesh = []float64{0, 0.5, 1.25, 3}
	})

	DescribeTable("should agree on a zero derivative",
		func(x0 dynamo.State) {
			explicit, err := Explicit(zero, mesh, x0, nil)
			Expect(err).NotTo(HaveOccurred())

			implicit, err := Implicit(zero, mesh, x0, nil, DefaultTolerance, DefaultLimit)
			Expect(err).NotTo(HaveOccurred())

			Expect(mat.Equal(explicit, implicit)).To(BeTrue())

			rows, cols := explicit.Dims()
			Expect(rows).To(Equal(len(x0)))
			Expect(cols).To(Equal(len(mesh)))
			for i := 0; i < cols; i++ {
				Expect(explicit.At(0, i)).To(BeNumerically("~", mesh[i], 1e-12))
				for k := 1; k < rows; k++ {
					Expect(explicit.At(k, i)).To(Equal(x0[k]))
				}
			}
		},
		Entry("first order", dynamo.State{0, 5}),
		Entry("second order at rest", dynamo.State{0, 2, 0}),
		Entry("third order at rest", dynamo.State{0, -1, 0, 0}),
	)

	It("should take a derived order from the initial state", func() {
		sol, err := Explicit(zero, mesh, dynamo.State{0, 1, 2, 3, 4}, nil)
		Expect(err).NotTo(HaveOccurred())

		rows, _ := sol.Dims()
		Expect(rows).To(Equal(5))
	})

	It("should be deterministic", func() {
		f := dynamo.DerivativeFunc(func(x dynamo.State, p dynamo.Values) float64 {
			return p["force"] - p["k"]*x[1] - 0.3*x[2]
		})
		p := dynamo.Params{"k": {4}, "force": {0, 1, 0, 1}}

		first, err := Explicit(f, mesh, dynamo.State{0, 1, 0}, p)
		Expect(err).NotTo(HaveOccurred())
		second, err := Explicit(f, mesh, dynamo.State{0, 1, 0}, p)
		Expect(err).NotTo(HaveOccurred())

		Expect(first.RawMatrix().Data).To(Equal(second.RawMatrix().Data))
	})

	It("should return the initial state for a single point mesh", func() {
		x0 := dynamo.State{7, 1, 2}

		for _, solve := range []func() (*mat.Dense, error){
			func() (*mat.Dense, error) { return Explicit(zero, []float64{7}, x0, nil) },
			func() (*mat.Dense, error) {
				return Implicit(zero, []float64{7}, x0, nil, DefaultTolerance, DefaultLimit)
			},
		} {
			sol, err := solve()
			Expect(err).NotTo(HaveOccurred())

			rows, cols := sol.Dims()
			Expect(rows).To(Equal(3))
			Expect(cols).To(Equal(1))
			Expect(mat.Col(nil, 0, sol)).To(Equal([]float64{7, 1, 2}))
		}
	})

	It("should not modify the caller's initial state", func() {
		x0 := dynamo.State{0, 1, 1}
		_, err := Implicit(oscillator, mesh, x0, nil, DefaultTolerance, DefaultLimit)
		Expect(err).NotTo(HaveOccurred())
		Expect(x0).To(Equal(dynamo.State{0, 1, 1}))
	})

	It("should surface parameter length errors before stepping", func() {
		_, err := Explicit(decay, mesh, dynamo.State{0, 1}, dynamo.Params{"k": {1, 2}})
		Expect(err).To(MatchError(dynamo.ErrParamLength))
	})
})
