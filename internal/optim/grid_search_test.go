package optim

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/san-kum/flywheel/internal/config"
	"github.com/san-kum/flywheel/internal/shooter"
)

func TestGridSearchQuadratic(t *testing.T) {
	g := NewWithT(t)

	gs := NewGridSearch([]string{"kp", "kd"}, [][]float64{
		Linspace(0, 1, 5),
		Linspace(-1, 1, 3),
	})
	gs.Workers = 3

	g.Expect(gs.Candidates()).To(HaveLen(15))

	objective := func(_ context.Context, p map[string]float64) (float64, error) {
		dx, dy := p["kp"]-0.5, p["kd"]
		return dx*dx + dy*dy, nil
	}

	best, score, err := gs.Search(context.Background(), objective)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(best).To(Equal(map[string]float64{"kp": 0.5, "kd": 0}))
	g.Expect(score).To(BeZero())
}

func TestGridSearchErrors(t *testing.T) {
	g := NewWithT(t)
	boom := errors.New("boom")

	gs := NewGridSearch([]string{"kp"}, [][]float64{{1, 2, 3}})
	best, _, err := gs.Search(context.Background(), func(_ context.Context, p map[string]float64) (float64, error) {
		if p["kp"] == 2 {
			return 0, boom
		}
		return p["kp"], nil
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(best["kp"]).To(Equal(1.0))

	_, _, err = gs.Search(context.Background(), func(context.Context, map[string]float64) (float64, error) {
		return 0, boom
	})
	g.Expect(err).To(MatchError(boom))

	_, _, err = NewGridSearch([]string{"kp", "kd"}, [][]float64{{1}}).Search(context.Background(), nil)
	g.Expect(err).To(HaveOccurred())
}

func TestLinspace(t *testing.T) {
	g := NewWithT(t)
	g.Expect(Linspace(0, 1, 3)).To(Equal([]float64{0, 0.5, 1}))
	g.Expect(Linspace(2, 5, 1)).To(Equal([]float64{2}))
}

func TestShotObjectivePrefersStifferLoop(t *testing.T) {
	g := NewWithT(t)

	base := config.DefaultConfig()
	base.Sequence.Feed = shooter.FeedTimed

	gs := NewGridSearch([]string{"kp"}, [][]float64{{0, 0.01, 0.05}})
	best, score, err := gs.Search(context.Background(), ShotObjective(base, "spin_up_time", 6*time.Second))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(best["kp"]).To(Equal(0.05))
	g.Expect(score).To(BeNumerically("<", 2.0))
	g.Expect(base.Gains.Kp).To(Equal(config.DefaultKp))

	_, err = ShotObjective(base, "overshoot", time.Second)(context.Background(), map[string]float64{"kp": 0})
	g.Expect(err).To(HaveOccurred())
}
