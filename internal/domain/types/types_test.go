package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/futurepaul/popow/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	Convey("Given an Entry struct", t, func() {
		entry := types.Entry{
			Rank:       1,
			EventID:    "000000ff",
			Difficulty: 24,
			Tier:       "high",
		}

		Convey("When encoding it as JSON", func() {
			raw, err := json.Marshal(entry)
			So(err, ShouldBeNil)

			Convey("Then it uses the nostr field names", func() {
				var m map[string]any
				So(json.Unmarshal(raw, &m), ShouldBeNil)
				So(m["id"], ShouldEqual, "000000ff")
				So(m["difficulty"], ShouldEqual, float64(24))
				So(m["tier"], ShouldEqual, "high")
			})
		})
	})
}

func TestView(t *testing.T) {
	Convey("Given an empty View", t, func() {
		raw, err := json.Marshal(types.View{State: "idle"})
		So(err, ShouldBeNil)

		Convey("Then optional fields are omitted", func() {
			So(string(raw), ShouldNotContainSubstring, "last_error")
			So(string(raw), ShouldContainSubstring, `"state":"idle"`)
		})
	})
}
