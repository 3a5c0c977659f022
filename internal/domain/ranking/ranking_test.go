package ranking_test

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/futurepaul/popow/internal/adapters/repository"
	"github.com/futurepaul/popow/internal/domain/model"
	"github.com/futurepaul/popow/internal/domain/ranking"
	"github.com/futurepaul/popow/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

// Identifiers scoring 0, 12, 25 and 30 bits.
var (
	id0  = "f" + strings.Repeat("0", 63)
	id12 = "000f" + strings.Repeat("a", 60)
	id25 = "0000004" + strings.Repeat("b", 57)
	id30 = "00000002" + strings.Repeat("c", 56)
)

func rec(id string, tags ...[]string) model.EventRecord {
	return model.EventRecord{ID: id, Kind: 1, Tags: tags}
}

func difficulties(evs []model.ScoredEvent) []int {
	out := make([]int, len(evs))
	for i, ev := range evs {
		out[i] = ev.Difficulty
	}
	return out
}

func TestSet(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a ranked set", t, func() {
		set := ranking.New(nil, repository.NewTreapStore(repository.WithSeed(7)))

		convey.Convey("When loading a snapshot scoring {0, 12, 25}", func() {
			verdicts, err := set.LoadSnapshot(ctx, []model.EventRecord{rec(id0), rec(id12), rec(id25)})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then only qualifying records are ranked in descending order", func() {
				convey.So(verdicts, convey.ShouldHaveLength, 3)
				convey.So(verdicts[0].Qualifies, convey.ShouldBeFalse)
				convey.So(difficulties(set.Snapshot(ctx)), convey.ShouldResemble, []int{25, 12})
				convey.So(set.Len(ctx), convey.ShouldEqual, 2)
			})

			convey.Convey("Then tiers are assigned per entry", func() {
				snap := set.Snapshot(ctx)
				convey.So(snap[0].Tier, convey.ShouldEqual, model.TierHigh)
				convey.So(snap[1].Tier, convey.ShouldEqual, model.TierMedium)
			})

			convey.Convey("And a live event scoring 30 is inserted", func() {
				v, admitted, err := set.Insert(ctx, rec(id30))
				convey.So(err, convey.ShouldBeNil)
				convey.So(admitted, convey.ShouldBeTrue)
				convey.So(v.Difficulty, convey.ShouldEqual, 30)

				convey.Convey("Then it moves to the front", func() {
					convey.So(difficulties(set.Snapshot(ctx)), convey.ShouldResemble, []int{30, 25, 12})
					rank, _, err := set.Rank(ctx, id30)
					convey.So(err, convey.ShouldBeNil)
					convey.So(rank, convey.ShouldEqual, 1)
				})
			})

			convey.Convey("And the same id is inserted again", func() {
				_, admitted, err := set.Insert(ctx, rec(id25))
				convey.So(err, convey.ShouldBeNil)
				convey.So(admitted, convey.ShouldBeFalse)
				convey.So(set.Len(ctx), convey.ShouldEqual, 2)
			})

			convey.Convey("And a second snapshot is loaded", func() {
				_, err := set.LoadSnapshot(ctx, []model.EventRecord{rec(id30)})
				convey.So(err, convey.ShouldBeNil)

				convey.Convey("Then it replaces the prior contents", func() {
					convey.So(difficulties(set.Snapshot(ctx)), convey.ShouldResemble, []int{30})
				})
			})
		})

		convey.Convey("When a zero-score record carries a nonce tag", func() {
			_, admitted, err := set.Insert(ctx, rec(id0, []string{"nonce", "1", "0"}))
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it is admitted with difficulty 0", func() {
				convey.So(admitted, convey.ShouldBeTrue)
				convey.So(difficulties(set.Snapshot(ctx)), convey.ShouldResemble, []int{0})
			})
		})

		convey.Convey("When a malformed record is inserted", func() {
			v, admitted, err := set.Insert(ctx, rec("zz"+strings.Repeat("0", 62), []string{"nonce"}))
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it is excluded", func() {
				convey.So(v.Malformed, convey.ShouldBeTrue)
				convey.So(admitted, convey.ShouldBeFalse)
				convey.So(set.Len(ctx), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the set is reset", func() {
			_, _ = set.LoadSnapshot(ctx, []model.EventRecord{rec(id12), rec(id25)})
			set.Reset(ctx)

			convey.Convey("Then it is empty", func() {
				convey.So(set.Len(ctx), convey.ShouldEqual, 0)
				convey.So(set.Snapshot(ctx), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When asking for the top entries", func() {
			_, _ = set.LoadSnapshot(ctx, []model.EventRecord{rec(id12), rec(id25), rec(id30)})
			top, err := set.TopN(ctx, 2)

			convey.Convey("Then the leading entries are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(difficulties(top), convey.ShouldResemble, []int{30, 25})
			})
		})
	})
}

func TestSetCustomPolicy(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a set with a custom marker tag", t, func() {
		set := ranking.New(scoring.NewPolicy(scoring.WithNonceTag("pow")), nil)

		convey.Convey("Then only the configured tag rescues zero-score records", func() {
			_, admitted, _ := set.Insert(ctx, rec(id0, []string{"nonce"}))
			convey.So(admitted, convey.ShouldBeFalse)
			_, admitted, _ = set.Insert(ctx, rec(id0, []string{"pow"}))
			convey.So(admitted, convey.ShouldBeTrue)
		})
	})
}

// randomID builds a 64-char id with the requested number of leading zero nibbles.
func randomID(rng *rand.Rand, zeros int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("0", zeros))
	for b.Len() < 64 {
		fmt.Fprintf(&b, "%x", rng.Intn(16))
	}
	return b.String()
}

func TestSetRandomInterleavings(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	convey.Convey("Given random interleavings of qualifying and non-qualifying records", t, func() {
		for round := 0; round < 25; round++ {
			set := ranking.New(nil, nil)
			qualifying := 0
			for i := 0; i < 200; i++ {
				before := set.Len(ctx)
				v, admitted, err := set.Insert(ctx, rec(randomID(rng, rng.Intn(6))))
				convey.So(err, convey.ShouldBeNil)
				if admitted {
					qualifying++
					convey.So(v.Qualifies, convey.ShouldBeTrue)
					convey.So(set.Len(ctx), convey.ShouldEqual, before+1)
				} else {
					convey.So(set.Len(ctx), convey.ShouldEqual, before)
				}
			}

			snap := set.Snapshot(ctx)
			convey.So(snap, convey.ShouldHaveLength, qualifying)
			for i := 1; i < len(snap); i++ {
				convey.So(snap[i-1].Difficulty, convey.ShouldBeGreaterThanOrEqualTo, snap[i].Difficulty)
			}
		}
	})
}
