package auth_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/northlux/securelab/internal/auth"
)

func TestStaticProvider(t *testing.T) {
	ctx := context.Background()

	Convey("Given a provider with registered tokens", t, func() {
		provider := auth.NewStaticProvider(
			auth.WithToken("tok-alice", auth.Actor{ID: "alice", Name: "Alice"}),
			auth.WithTokenTable(map[string]string{"tok-bob": "bob", "": "ignored"}),
		)

		Convey("A known token resolves to its actor", func() {
			actor, err := provider.Actor(ctx, "tok-alice")
			So(err, ShouldBeNil)
			So(actor, ShouldNotBeNil)
			So(actor.ID, ShouldEqual, "alice")
		})

		Convey("Table entries resolve with the name as id", func() {
			actor, err := provider.Actor(ctx, "tok-bob")
			So(err, ShouldBeNil)
			So(actor.ID, ShouldEqual, "bob")
		})

		Convey("Surrounding whitespace is tolerated", func() {
			actor, err := provider.Actor(ctx, "  tok-alice  ")
			So(err, ShouldBeNil)
			So(actor, ShouldNotBeNil)
		})

		Convey("An unknown token resolves to no actor and no error", func() {
			actor, err := provider.Actor(ctx, "tok-mallory")
			So(err, ShouldBeNil)
			So(actor, ShouldBeNil)
		})

		Convey("The empty token never resolves", func() {
			actor, err := provider.Actor(ctx, "")
			So(err, ShouldBeNil)
			So(actor, ShouldBeNil)
		})
	})
}

func TestActorContext(t *testing.T) {
	Convey("Given the actor context helpers", t, func() {
		Convey("A stored actor round-trips through the context", func() {
			actor := &auth.Actor{ID: "alice"}
			ctx := auth.WithActor(context.Background(), actor)
			So(auth.FromContext(ctx), ShouldEqual, actor)
		})

		Convey("A bare context yields no actor", func() {
			So(auth.FromContext(context.Background()), ShouldBeNil)
		})

		Convey("A stored nil actor also yields no actor", func() {
			ctx := auth.WithActor(context.Background(), nil)
			So(auth.FromContext(ctx), ShouldBeNil)
		})
	})
}
