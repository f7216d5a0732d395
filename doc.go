// Package quill is the rendering and compositing core of a vector design
// editor.
//
// A [Scene] owns a tree of [Node] values (groups, artboards, shapes, shape
// groups, text and bitmaps) whose geometry has already been resolved by a
// layout engine. Each frame turns that tree into pixels in two stages: the
// CPU rasterizes every node's own fills, strokes and shadows into a
// premultiplied bitmap, and a [Device] composites those bitmaps onto the
// viewport with transform, opacity, masking and blend modes.
//
// # Quick start
//
//	scene := quill.NewScene(quill.SceneOptions{Width: 800, Height: 600})
//	board := quill.NewArtboard("page", quill.Rect{Width: 640, Height: 480}, quill.ColorWhite)
//	board.AddChild(quill.NewRect("box", quill.Rect{X: 40, Y: 40, Width: 200, Height: 120}, quill.ColorBlack))
//	scene.Root().AddChild(board)
//
//	w, h := scene.Viewport().DeviceSize()
//	target, _ := scene.Device().NewTexture(w, h)
//	stats, err := scene.RenderFrame(target)
//
// The package ships a CPU [SoftDevice]; the ebitengpu package provides a
// GPU device built on Ebitengine shaders.
//
// # Incremental updates
//
// Every mutation goes through a setter or [Scene.RequestUpdate] with the
// cheapest sufficient [RefreshLevel]. Moving a node is a reflow and keeps
// its raster; changing opacity or mask mode only recomposes; only paint
// changes re-rasterize. A frame after which nothing changed does no raster
// or upload work at all.
//
// # Merging and masks
//
// A group with fractional opacity over more than one visible child, a group
// with effects, and a mask node are flattened into one offscreen texture
// before they are drawn, so overlapping children never double-blend. Masks
// clip the siblings that follow them up to the next mask or break-mask
// node.
//
// # Tiles
//
// With a [TileManager] the visible page area is drawn into fixed-size tile
// textures that are reused while content is unchanged. [NewNullTileManager]
// disables tiling.
//
// # Resources
//
// Images and fonts load asynchronously through a [ResourceLoader]. Frames
// never wait: a node renders empty until its source arrives and is
// repainted on the next frame. Each source is fetched once no matter how
// many nodes share it.
package quill
