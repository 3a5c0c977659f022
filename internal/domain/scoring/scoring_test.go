package scoring_test

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/futurepaul/popow/internal/domain/model"
	"github.com/futurepaul/popow/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

const hexDigits = "0123456789abcdef"

func TestDifficulty(t *testing.T) {
	Convey("Given the difficulty scorer", t, func() {
		Convey("When the id is all zero nibbles", func() {
			Convey("Then the score is four bits per digit", func() {
				for l := 0; l <= 64; l++ {
					d, err := scoring.Difficulty(strings.Repeat("0", l))
					So(err, ShouldBeNil)
					So(d, ShouldEqual, 4*l)
				}
			})
		})

		Convey("When the id starts with 8", func() {
			rng := rand.New(rand.NewSource(7))
			Convey("Then the score is zero regardless of the rest", func() {
				for i := 0; i < 100; i++ {
					d, err := scoring.Difficulty("8" + randomHex(rng, 63))
					So(err, ShouldBeNil)
					So(d, ShouldEqual, 0)
				}
			})
		})

		Convey("When one zero nibble precedes a nonzero nibble", func() {
			expected := map[byte]int{
				'1': 3, '2': 2, '3': 2, '4': 1, '5': 1, '6': 1, '7': 1,
				'8': 0, '9': 0, 'a': 0, 'b': 0, 'c': 0, 'd': 0, 'e': 0, 'f': 0,
			}
			Convey("Then the score is four plus the nibble's leading zeros", func() {
				for digit, lz := range expected {
					d, err := scoring.Difficulty("0" + string(digit) + "ffff")
					So(err, ShouldBeNil)
					So(d, ShouldEqual, 4+lz)
				}
			})
		})

		Convey("When scoring realistic ids", func() {
			cases := []struct {
				id   string
				want int
			}{
				{"f" + strings.Repeat("0", 63), 0},
				{"000f" + strings.Repeat("a", 60), 12},
				{"0000004" + strings.Repeat("b", 57), 25},
				{"00000002" + strings.Repeat("c", 56), 30},
				{"", 0},
			}
			Convey("Then each matches the count of leading zero bits", func() {
				for _, c := range cases {
					d, err := scoring.Difficulty(c.id)
					So(err, ShouldBeNil)
					So(d, ShouldEqual, c.want)
				}
			})
		})

		Convey("When the id uses upper-case hex", func() {
			d, err := scoring.Difficulty("000F")
			Convey("Then it scores like lower-case", func() {
				So(err, ShouldBeNil)
				So(d, ShouldEqual, 12)
			})
		})

		Convey("When the id contains a non-hex character", func() {
			_, errLead := scoring.Difficulty("zz00")
			_, errTail := scoring.Difficulty("0f0g")
			Convey("Then it is reported as malformed wherever it appears", func() {
				So(errors.Is(errLead, scoring.ErrMalformedID), ShouldBeTrue)
				So(errors.Is(errTail, scoring.ErrMalformedID), ShouldBeTrue)
			})
		})
	})
}

func TestQualifies(t *testing.T) {
	Convey("Given the qualification rule", t, func() {
		nonce := [][]string{{"p", "abc"}, {"nonce", "1234", "20"}}
		plain := [][]string{{"p", "abc"}, {"e", "def"}}

		Convey("Then zero difficulty without a nonce tag does not qualify", func() {
			So(scoring.Qualifies(0, plain), ShouldBeFalse)
			So(scoring.Qualifies(0, nil), ShouldBeFalse)
		})
		Convey("Then zero difficulty with a nonce tag qualifies", func() {
			So(scoring.Qualifies(0, nonce), ShouldBeTrue)
		})
		Convey("Then any positive difficulty qualifies", func() {
			So(scoring.Qualifies(5, nil), ShouldBeTrue)
			So(scoring.Qualifies(5, plain), ShouldBeTrue)
			So(scoring.Qualifies(5, nonce), ShouldBeTrue)
		})
		Convey("Then the marker match is case-sensitive", func() {
			So(scoring.Qualifies(0, [][]string{{"Nonce", "1"}}), ShouldBeFalse)
			So(scoring.Qualifies(0, [][]string{{}, {"x", "nonce"}}), ShouldBeFalse)
		})
	})
}

func TestTierOf(t *testing.T) {
	Convey("Given the default tiers", t, func() {
		So(scoring.TierOf(0), ShouldEqual, model.TierLow)
		So(scoring.TierOf(9), ShouldEqual, model.TierLow)
		So(scoring.TierOf(10), ShouldEqual, model.TierMedium)
		So(scoring.TierOf(19), ShouldEqual, model.TierMedium)
		So(scoring.TierOf(20), ShouldEqual, model.TierHigh)
		So(scoring.TierOf(40), ShouldEqual, model.TierHigh)
	})
}

func TestPolicyEvaluate(t *testing.T) {
	Convey("Given a default policy", t, func() {
		p := scoring.NewPolicy()

		Convey("When evaluating a mined event", func() {
			v := p.Evaluate(model.EventRecord{ID: "0000004" + strings.Repeat("b", 57)})
			Convey("Then it qualifies with a high tier", func() {
				So(v.Difficulty, ShouldEqual, 25)
				So(v.Qualifies, ShouldBeTrue)
				So(v.Tier, ShouldEqual, model.TierHigh)
				So(v.Malformed, ShouldBeFalse)
			})
		})

		Convey("When evaluating a malformed id", func() {
			v := p.Evaluate(model.EventRecord{ID: "not-hex", Tags: [][]string{{"nonce", "1"}}})
			Convey("Then it is flagged and never qualifies", func() {
				So(v.Malformed, ShouldBeTrue)
				So(v.Qualifies, ShouldBeFalse)
			})
		})
	})

	Convey("Given a policy with custom options", t, func() {
		p := scoring.NewPolicy(scoring.WithNonceTag("pow"), scoring.WithTierThresholds(16, 8))

		Convey("Then the custom marker tag qualifies zero-score events", func() {
			v := p.Evaluate(model.EventRecord{ID: "ff", Tags: [][]string{{"pow", "1"}}})
			So(v.Qualifies, ShouldBeTrue)
			v = p.Evaluate(model.EventRecord{ID: "ff", Tags: [][]string{{"nonce", "1"}}})
			So(v.Qualifies, ShouldBeFalse)
		})

		Convey("Then the custom thresholds drive the tier", func() {
			So(p.Tier(8), ShouldEqual, model.TierMedium)
			So(p.Tier(16), ShouldEqual, model.TierHigh)
		})

		Convey("Then invalid thresholds are ignored", func() {
			bad := scoring.NewPolicy(scoring.WithTierThresholds(5, 10))
			So(bad.Tier(10), ShouldEqual, model.TierMedium)
			So(bad.Tier(20), ShouldEqual, model.TierHigh)
		})
	})
}

func randomHex(rng *rand.Rand, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(hexDigits[rng.Intn(len(hexDigits))])
	}
	return b.String()
}

func BenchmarkDifficulty(b *testing.B) {
	id := fmt.Sprintf("%08x%s", 0x1f, strings.Repeat("a", 56))
	for i := 0; i < b.N; i++ {
		_, _ = scoring.Difficulty(id)
	}
}
