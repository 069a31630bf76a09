package dedupe_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/northlux/securelab/internal/domain/dedupe"
	"github.com/northlux/securelab/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeKeySource stands in for the repository.
type fakeKeySource struct {
	urls    map[string]struct{}
	cves    map[string]bool
	urlsErr error
	cvesErr error
}

func (f *fakeKeySource) ExistingURLs(_ context.Context) (map[string]struct{}, error) {
	return f.urls, f.urlsErr
}

func (f *fakeKeySource) ExistingCVEIDs(_ context.Context) (map[string]bool, error) {
	return f.cves, f.cvesErr
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	Convey("Given a key source with stored URLs and CVE ids", t, func() {
		src := &fakeKeySource{
			urls: map[string]struct{}{"https://x.com/a": {}},
			cves: map[string]bool{"CVE-2099-0001": true, "CVE-2099-0002": true},
		}
		ix := dedupe.Build(ctx, src)

		Convey("Then membership checks match the snapshot exactly", func() {
			So(ix.HasURL("https://x.com/a"), ShouldBeTrue)
			So(ix.HasURL("https://x.com/b"), ShouldBeFalse)
			So(ix.HasCVE("CVE-2099-0001"), ShouldBeTrue)
			So(ix.HasCVE("CVE-2099-0002"), ShouldBeTrue)
			So(ix.HasCVE("CVE-2099-0003"), ShouldBeFalse)
			So(ix.Size(), ShouldEqual, 3)
		})

		Convey("And empty keys never match", func() {
			So(ix.HasURL(""), ShouldBeFalse)
			So(ix.HasCVE(""), ShouldBeFalse)
		})
	})

	Convey("Given a key source whose URL query fails", t, func() {
		src := &fakeKeySource{
			urlsErr: errors.New("store unavailable"),
			cves:    map[string]bool{"CVE-2099-0001": true},
		}
		ix := dedupe.Build(ctx, src)

		Convey("Then the index fails open as empty and imports proceed without dedup", func() {
			So(ix, ShouldNotBeNil)
			So(ix.Size(), ShouldEqual, 0)
			So(ix.HasCVE("CVE-2099-0001"), ShouldBeFalse)
		})
	})

	Convey("Given a key source whose CVE query fails", t, func() {
		src := &fakeKeySource{
			urls:    map[string]struct{}{"https://x.com/a": {}},
			cvesErr: errors.New("store unavailable"),
		}
		ix := dedupe.Build(ctx, src)

		Convey("Then the index fails open as empty", func() {
			So(ix.Size(), ShouldEqual, 0)
			So(ix.HasURL("https://x.com/a"), ShouldBeFalse)
		})
	})
}
