package camera

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/dynamo"
)

var _ = Describe("Targeting", func() {
	var (
		earth, mars, sun *body.Body
		t                *Targeting
	)

	BeforeEach(func() {
		earth, mars, sun = newEarth(), newMars(), newSun()
		var err error
		t, err = NewTargeting(earth, earth, DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("initial view", func() {
		It("looks at the target from four radii on its +Z side", func() {
			v := t.View()
			expectNear(v.LookAt, ScenePosition(earth), 1e-6)
			expectNear(v.Position, r3.Add(ScenePosition(earth), r3.Vec{Z: 4 * 6371}), 1e-6)
			Expect(v.InputEnabled).To(BeTrue())
			Expect(v.Near).To(Equal(DefaultNear))
			Expect(v.Far).To(Equal(DefaultFar))
			Expect(v.MinDistance).To(BeNumerically("~", 6371+5000, 1e-9))
			Expect(v.Up).To(Equal(body.NormalOrUp(earth)))
		})

		It("rejects a missing target and bad settings", func() {
			_, err := NewTargeting(nil, earth, DefaultConfig())
			Expect(err).To(MatchError(dynamo.ErrInvalidInput))

			cfg := DefaultConfig()
			cfg.TransitSpeed = 0
			_, err = NewTargeting(earth, earth, cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidInput))
		})

		It("rejects a non-finite view", func() {
			Expect(t.SetView(r3.Vec{X: math.NaN()}, r3.Vec{})).To(MatchError(dynamo.ErrInvalidInput))
			expectNear(t.View().LookAt, ScenePosition(earth), 1e-6)
		})
	})

	Describe("modes", func() {
		BeforeEach(func() {
			Expect(t.SetView(r3.Add(ScenePosition(earth), r3.Vec{Z: 10000}), ScenePosition(earth))).To(Succeed())
		})

		It("switches between look-at and follow without changing the offset", func() {
			before := t.View().Offset()
			Expect(t.SetMode(Follow)).To(Succeed())
			t.Follow()
			Expect(t.SetMode(LookAt)).To(Succeed())
			t.Follow()
			Expect(t.SetMode(Follow)).To(Succeed())
			t.Follow()
			expectNear(t.View().Offset(), before, 1e-6)
		})

		It("carries the camera along with a moving target in follow mode", func() {
			Expect(t.SetMode(Follow)).To(Succeed())
			earth.Position = r3.Add(earth.Position, r3.Vec{X: 5e8, Y: -2e7})
			t.Follow()
			expectNear(t.View().LookAt, ScenePosition(earth), 1e-6)
			expectNear(t.View().Offset(), r3.Vec{Z: 10000}, 1e-6)
		})

		It("only turns the camera in look-at mode", func() {
			pos := t.View().Position
			earth.Position = r3.Add(earth.Position, r3.Vec{X: 5e8})
			t.Follow()
			Expect(t.View().Position).To(Equal(pos))
			expectNear(t.View().LookAt, ScenePosition(earth), 1e-6)
		})

		It("refuses the surface view without a pin", func() {
			before := t.View()
			Expect(t.SetMode(ViewFromSurface)).To(MatchError(dynamo.ErrInvalidState))
			Expect(t.Mode()).To(Equal(LookAt))
			Expect(t.View()).To(Equal(before))
		})

		It("rejects unknown modes", func() {
			Expect(t.SetMode(Mode(9))).To(MatchError(dynamo.ErrInvalidInput))
		})

		It("restores up and near exactly after leaving the surface view", func() {
			before := t.View()
			pin, err := NewSurfacePin(earth, unit.AngleFromDeg(51.48), unit.AngleFromDeg(0))
			Expect(err).NotTo(HaveOccurred())
			Expect(t.SetPin(pin)).To(Succeed())

			Expect(t.SetMode(ViewFromSurface)).To(Succeed())
			Expect(t.View().Up).To(Equal(pin.Normal()))
			Expect(t.View().Near).To(Equal(DefaultSurfaceNear))
			t.Follow()

			Expect(t.SetMode(Follow)).To(Succeed())
			Expect(t.View().Up).To(Equal(before.Up))
			Expect(t.View().Near).To(Equal(before.Near))
		})

		It("keeps the camera on the pin as the host spins", func() {
			host := &body.Body{Name: "Host", Kind: body.Planet, Radius: 1000e3, Position: r3.Vec{X: 1e9}}
			tt, _ := NewTargeting(host, host, DefaultConfig())
			pin, _ := NewSurfacePin(host, 0, 0)
			Expect(tt.SetPin(pin)).To(Succeed())
			Expect(tt.SetMode(ViewFromSurface)).To(Succeed())

			tt.Follow()
			expectNear(tt.View().Position, r3.Vec{X: 1e6 + 1000}, 1e-6)
			expectNear(tt.View().Up, r3.Vec{X: 1}, 1e-9)

			host.Spin = math.Pi / 2
			tt.Follow()
			expectNear(tt.View().Up, r3.Vec{Z: -1}, 1e-9)
			expectNear(tt.View().Position, r3.Vec{X: 1e6, Z: -1000}, 1e-6)
			expectNear(tt.View().LookAt, ScenePosition(host), 1e-9)
		})

		It("will not drop the pin while on the surface", func() {
			pin, _ := NewSurfacePin(earth, 0, 0)
			Expect(t.SetPin(pin)).To(Succeed())
			Expect(t.SetMode(ViewFromSurface)).To(Succeed())
			Expect(t.SetPin(nil)).To(MatchError(dynamo.ErrInvalidState))
			Expect(t.Pin()).To(BeIdenticalTo(pin))
		})
	})

	Describe("committing", func() {
		It("emits only when the target changes", func() {
			t.Commit(earth)
			Expect(t.Events()).NotTo(Receive())

			t.Commit(mars)
			var ev TargetChanged
			Expect(t.Events()).To(Receive(&ev))
			Expect(ev.Body).To(BeIdenticalTo(mars))
			Expect(ev.Previous).To(BeIdenticalTo(earth))
			Expect(t.View().MinDistance).To(BeNumerically("~", 3389.5+5000, 1e-9))
		})

		It("drops the oldest event when nobody is listening", func() {
			cfg := DefaultConfig()
			cfg.EventBuffer = 1
			tt, _ := NewTargeting(earth, earth, cfg)
			tt.Commit(mars)
			tt.Commit(sun)
			var ev TargetChanged
			Expect(tt.Events()).To(Receive(&ev))
			Expect(ev.Body).To(BeIdenticalTo(sun))
			Expect(tt.Events()).NotTo(Receive())
		})
	})

	Describe("moving to a target", func() {
		BeforeEach(func() {
			Expect(t.SetView(r3.Add(ScenePosition(earth), r3.Vec{Z: 10000}), ScenePosition(earth))).To(Succeed())
		})

		It("does nothing for the current target", func() {
			before := t.View()
			Expect(t.MoveTo(earth)).To(BeFalse())
			Expect(t.InTransition()).To(BeFalse())
			Expect(t.View()).To(Equal(before))
			Expect(t.Events()).NotTo(Receive())
		})

		It("freezes input and orients before translating", func() {
			start := t.View()
			Expect(t.MoveTo(mars)).To(BeTrue())
			Expect(t.InputEnabled()).To(BeFalse())

			tr, ok := t.Transition()
			Expect(ok).To(BeTrue())
			Expect(tr.Phase()).To(Equal(Orienting))

			t.Tick(tr.RotationDuration / 2)
			Expect(t.View().Position).To(Equal(start.Position))
			want := lerp(start.LookAt, ScenePosition(mars), QuinticIn(0.5))
			expectNear(t.View().LookAt, want, 1e-3)

			t.Tick(tr.RotationDuration / 2)
			tr, _ = t.Transition()
			Expect(tr.Phase()).To(Equal(Translating))
			expectNear(t.View().LookAt, ScenePosition(mars), 1e-6)

			t.Tick(tr.TranslationDuration / 2)
			Expect(t.View().Position).NotTo(Equal(start.Position))
			Expect(t.InputEnabled()).To(BeFalse())
			Expect(t.Target()).To(BeIdenticalTo(earth))
		})

		It("scales durations with angle and distance above their floors", func() {
			Expect(t.MoveTo(mars)).To(BeTrue())
			tr, _ := t.Transition()
			look := r3.Sub(t.View().LookAt, t.View().Position)
			toMars := r3.Sub(ScenePosition(mars), t.View().Position)
			angle := math.Acos(r3.Cos(look, toMars))
			Expect(tr.RotationDuration).To(BeNumerically("~", math.Max(angle/math.Pi*2, 1), 1e-9))
			Expect(tr.TranslationDuration).To(BeNumerically(">=", 3))

			Expect(rotationDuration(0.01, DefaultConfig())).To(Equal(1.0))
			Expect(rotationDuration(math.Pi, DefaultConfig())).To(Equal(2.0))
			Expect(rotationDuration(-math.Pi, DefaultConfig())).To(Equal(2.0))
			Expect(translationDuration(1000, DefaultConfig())).To(Equal(3.0))
			Expect(translationDuration(3.3e10, DefaultConfig())).To(Equal(10.0))
		})

		DescribeTable("preserves the distance from the surface whatever the new radius",
			func(radius float64) {
				b := &body.Body{Name: "B", Kind: body.Planet, Radius: radius, Position: r3.Vec{X: 0.7 * au, Y: 0.1 * au, Z: 0.4 * au}}
				d0 := t.DistanceFromSurface(earth)
				Expect(t.MoveTo(b)).To(BeTrue())
				settle(t)
				Expect(t.DistanceFromSurface(b)).To(BeNumerically("~", d0, 1e-3))
			},
			Entry("asteroid", 1e3),
			Entry("mars-sized", 3389.5e3),
			Entry("jupiter-sized", 69911e3),
			Entry("sun-sized", 695700e3),
		)

		It("completes in a single long tick", func() {
			Expect(t.MoveTo(mars)).To(BeTrue())
			Expect(t.Tick(1e6)).To(BeTrue())
			Expect(t.InTransition()).To(BeFalse())
			Expect(t.Target()).To(BeIdenticalTo(mars))
		})

		It("recomputes the follow offset when flying from earth to mars", func() {
			Expect(t.SetMode(Follow)).To(Succeed())
			camStart := t.View().Position
			d0 := t.DistanceFromSurface(earth)

			Expect(t.MoveTo(mars)).To(BeTrue())
			settle(t)

			dir := r3.Unit(r3.Sub(ScenePosition(mars), camStart))
			want := r3.Sub(ScenePosition(mars), r3.Scale(d0+SceneRadius(mars), dir))
			expectNear(t.View().Position, want, 1e-3)
			Expect(t.DistanceTo(mars)).To(BeNumerically("~", d0+SceneRadius(mars), 1e-3))
			Expect(r3.Norm(r3.Sub(t.View().Offset(), r3.Vec{Z: 10000}))).To(BeNumerically(">", 1))

			Expect(t.Target()).To(BeIdenticalTo(mars))
			Expect(t.InputEnabled()).To(BeTrue())
			Expect(t.View().MinDistance).To(BeNumerically("~", 3389.5+5000, 1e-9))
			var ev TargetChanged
			Expect(t.Events()).To(Receive(&ev))
			Expect(ev.Body).To(BeIdenticalTo(mars))

			offset := t.View().Offset()
			mars.Position = r3.Add(mars.Position, r3.Vec{Z: 1e9})
			t.Follow()
			expectNear(t.View().Offset(), offset, 1e-6)
		})

		It("tracks a target that moves during the flight", func() {
			Expect(t.MoveTo(mars)).To(BeTrue())
			tr, _ := t.Transition()
			t.Tick(tr.RotationDuration + 0.1)
			dest := r3.Add(ScenePosition(mars), tr.destOffset)

			shift := r3.Vec{X: 2e6, Z: 3e6}
			mars.Position = r3.Add(mars.Position, r3.Scale(MetersPerUnit, shift))
			settle(t)
			expectNear(t.View().Position, r3.Add(dest, shift), 1e-3)
			expectNear(t.View().LookAt, ScenePosition(mars), 1e-6)
		})

		It("supersedes an unfinished transition instead of queueing", func() {
			Expect(t.MoveTo(mars)).To(BeTrue())
			t.Tick(0.5)
			Expect(t.MoveTo(mars)).To(BeFalse())

			Expect(t.MoveTo(sun)).To(BeTrue())
			tr, _ := t.Transition()
			Expect(tr.Target).To(BeIdenticalTo(sun))
			Expect(tr.Phase()).To(Equal(Orienting))

			settle(t)
			Expect(t.Target()).To(BeIdenticalTo(sun))
			var ev TargetChanged
			Expect(t.Events()).To(Receive(&ev))
			Expect(ev.Body).To(BeIdenticalTo(sun))
			Expect(t.Events()).NotTo(Receive())
		})

		It("flies back to the committed target without an event", func() {
			Expect(t.MoveTo(mars)).To(BeTrue())
			t.Tick(0.2)
			Expect(t.MoveTo(earth)).To(BeTrue())
			settle(t)
			Expect(t.Target()).To(BeIdenticalTo(earth))
			Expect(t.Events()).NotTo(Receive())
		})

		It("ends on the pin when viewing from the surface", func() {
			pin, _ := NewSurfacePin(earth, unit.AngleFromDeg(10), unit.AngleFromDeg(20))
			Expect(t.SetPin(pin)).To(Succeed())
			Expect(t.SetMode(ViewFromSurface)).To(Succeed())
			t.Follow()

			Expect(t.MoveTo(mars)).To(BeTrue())
			settle(t)
			expectNear(t.View().Position, pin.WorldPosition(), 1e-6)
			expectNear(t.View().LookAt, ScenePosition(mars), 1e-6)
			Expect(t.Mode()).To(Equal(ViewFromSurface))
		})
	})

	Describe("orbit controls", func() {
		var c *OrbitControls

		BeforeEach(func() {
			c = NewOrbitControls()
			Expect(t.SetView(r3.Add(ScenePosition(earth), r3.Vec{Z: 50000}), ScenePosition(earth))).To(Succeed())
		})

		It("orbits without changing distance", func() {
			c.OrbitLeft()
			c.OrbitUp()
			t.ApplyControls(c)
			Expect(r3.Norm(t.View().Offset())).To(BeNumerically("~", 50000, 1e-6))
			Expect(t.View().Offset()).NotTo(Equal(r3.Vec{Z: 50000}))
			Expect(c.Pending()).To(BeFalse())
		})

		It("clamps zoom to the minimum distance", func() {
			for i := 0; i < 50; i++ {
				c.ZoomIn()
			}
			t.ApplyControls(c)
			Expect(r3.Norm(t.View().Offset())).To(BeNumerically("~", t.View().MinDistance, 1e-6))
		})

		It("keeps away from the poles", func() {
			c.Rotate(0, 10)
			t.ApplyControls(c)
			Expect(angleBetween(t.View().Offset(), t.View().Up)).To(BeNumerically(">=", poleMargin*0.999))
		})

		It("discards input during a transition", func() {
			Expect(t.MoveTo(mars)).To(BeTrue())
			pos := t.View().Position
			c.OrbitRight()
			t.ApplyControls(c)
			Expect(t.View().Position).To(Equal(pos))
			Expect(c.Pending()).To(BeFalse())
		})

		It("drops non-finite orbit input", func() {
			pos := t.View().Position
			c.Rotate(math.NaN(), 0)
			c.Rotate(0, math.Inf(1))
			c.Zoom(math.NaN())
			Expect(c.Pending()).To(BeFalse())
			c.OrbitRight()
			t.ApplyControls(c)
			Expect(dynamo.IsFinite(t.View().Position.X)).To(BeTrue())
			Expect(t.View().Position).NotTo(Equal(pos))
		})

		It("ignores input on the surface", func() {
			pin, _ := NewSurfacePin(earth, 0, 0)
			Expect(t.SetPin(pin)).To(Succeed())
			Expect(t.SetMode(ViewFromSurface)).To(Succeed())
			pos := t.View().Position
			c.ZoomOut()
			t.ApplyControls(c)
			Expect(t.View().Position).To(Equal(pos))
		})
	})
})

var _ = Describe("SurfacePin", func() {
	host := &body.Body{Name: "Host", Kind: body.Planet, Radius: 2000e3, Position: r3.Vec{Y: 5e9}}

	DescribeTable("normals on an untilted host",
		func(lat, lon float64, want r3.Vec) {
			pin, err := NewSurfacePin(host, unit.AngleFromDeg(lat), unit.AngleFromDeg(lon))
			Expect(err).NotTo(HaveOccurred())
			expectNear(pin.Normal(), want, 1e-12)
			expectNear(pin.WorldPosition(), r3.Add(r3.Vec{Y: 5e6}, r3.Scale(2000, want)), 1e-6)
		},
		Entry("origin", 0.0, 0.0, r3.Vec{X: 1}),
		Entry("north pole", 90.0, 0.0, r3.Vec{Y: 1}),
		Entry("south pole", -90.0, 0.0, r3.Vec{Y: -1}),
		Entry("east", 0.0, 90.0, r3.Vec{Z: -1}),
	)

	It("rejects bad coordinates", func() {
		_, err := NewSurfacePin(host, unit.AngleFromDeg(91), 0)
		Expect(err).To(MatchError(dynamo.ErrInvalidInput))
		_, err = NewSurfacePin(nil, 0, 0)
		Expect(err).To(MatchError(dynamo.ErrInvalidInput))
		_, err = NewSurfacePin(host, unit.Angle(math.NaN()), 0)
		Expect(err).To(MatchError(dynamo.ErrInvalidInput))
	})

	It("follows the host's tilt", func() {
		tilted := &body.Body{Name: "Tilted", Kind: body.Planet, Radius: 1e6, Obliquity: unit.AngleFromDeg(90)}
		pin, _ := NewSurfacePin(tilted, unit.AngleFromDeg(90), 0)
		expectNear(pin.Normal(), body.Axis(tilted), 1e-12)
	})
})

var _ = Describe("helpers", func() {
	DescribeTable("ParseMode",
		func(in string, want Mode, ok bool) {
			got, err := ParseMode(in)
			if !ok {
				Expect(err).To(MatchError(dynamo.ErrInvalidInput))
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
			Expect(ParseMode(got.String())).To(Equal(want))
		},
		Entry("look_at", "look_at", LookAt, true),
		Entry("follow", "Follow", Follow, true),
		Entry("surface", " surface ", ViewFromSurface, true),
		Entry("unknown", "orbit", LookAt, false),
	)

	DescribeTable("easing endpoints",
		func(e Easing) {
			Expect(e(0)).To(Equal(0.0))
			Expect(e(1)).To(Equal(1.0))
			Expect(e(0.25)).To(BeNumerically("<", e(0.75)))
		},
		Entry("linear", Easing(Linear)),
		Entry("quintic in", Easing(QuinticIn)),
		Entry("quintic in-out", Easing(QuinticInOut)),
	)

	It("is symmetric for quintic in-out", func() {
		Expect(QuinticInOut(0.5)).To(BeNumerically("~", 0.5, 1e-12))
		Expect(QuinticInOut(0.2) + QuinticInOut(0.8)).To(BeNumerically("~", 1, 1e-12))
	})

	DescribeTable("DistanceFormatter",
		func(units float64, want string) {
			Expect(DistanceFormatter{}.Format(units)).To(Equal(want))
		},
		Entry("short", 12.34, "12.3 km"),
		Entry("medium", 384400.0, "384400 km"),
		Entry("far", 1.495978707e8, "1.000 AU"),
		Entry("nan", math.NaN(), "n/a"),
	)
})
