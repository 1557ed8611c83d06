// Package bloom is a retained-mode 2D engine core for lightweight playable
// games.
//
// Bloom provides the scene graph and transform hierarchy, a declarative
// responsive layout resolver, a tween engine with the standard easing
// families, and an asset pipeline with staggered, polite and buffered
// loading. Pixel output and host integration live behind small interfaces;
// [github.com/phanxgames/bloom/backend/ebitenbackend] implements them on
// [Ebitengine].
//
// # Quick start
//
//	cfg := bloom.DefaultConfig()
//	game := bloom.NewGame(cfg, bloom.NewFSFetcher(os.DirFS("assets"), cfg, logger), logger)
//	hero := bloom.NewContainer("hero")
//	hero.Width, hero.Height = 64, 64
//	hero.SetLayout(&bloom.LayoutParams{XPercentage: bloom.Val(0.5), YPercentage: bloom.Val(0.5)})
//	game.Stage().AddChild(hero)
//	ebitenbackend.Run(game, ebitenbackend.RunConfig{Title: "demo", Width: 640, Height: 960})
//
// # Scene graph
//
// Every element is a [Node]. Nodes form a tree rooted at the [Stage].
// Children inherit their parent's world transform (including its
// registration offset) and alpha. Transforms are recomposed lazily from a
// snapshot of the placement fields, so fields may be assigned directly.
//
// Removal is two-phase: [Node.MarkForRemoval] tombstones a node and the
// stage unlinks it in [Stage.EmptyTrash] at the end of the frame, so
// listeners may remove nodes while events are being dispatched.
//
// # Frame order
//
// Each tick runs: asset polling and buffering checks, update dispatch from
// the update root, the draw pass, then trash and listener cleanup.
//
// [Ebitengine]: https://ebitengine.org
package bloom
