package quill

// DefaultTileUnit is the tile edge length in device pixels.
const DefaultTileUnit = 512

// Tile is one square region of a page rendered at a fixed scale. X and Y are
// the page-space origin and Size the edge length in page units.
type Tile struct {
	X, Y  float64
	Size  float64
	Scale float64

	tex     Texture
	version uint64
	drawn   bool
}

// Texture returns the tile's texture, or nil before its first render.
func (t *Tile) Texture() Texture {
	return t.tex
}

// tileTable is the sparse tile matrix of one page at one scale. Row 0,
// column 0 is the anchor; rows and columns grow by unshift and append.
type tileTable [][]*Tile

// TileManager virtualizes large pages into fixed-size tiles. Tables are kept
// per page and per scale; tiles are created on first visit and live until
// their page is released.
type TileManager struct {
	// Unit is the tile edge length in device pixels.
	Unit int

	null  bool
	pages map[*Node]map[float64]tileTable
}

// NewTileManager creates a tile manager with the given tile unit in pixels.
// A unit <= 0 selects DefaultTileUnit.
func NewTileManager(unit int) *TileManager {
	if unit <= 0 {
		unit = DefaultTileUnit
	}
	return &TileManager{Unit: unit, pages: make(map[*Node]map[float64]tileTable)}
}

// NewNullTileManager returns the null virtualization configuration: it builds
// no tiles and ActiveTiles always returns nil.
func NewNullTileManager() *TileManager {
	return &TileManager{null: true}
}

// Enabled reports whether the manager produces tiles.
func (m *TileManager) Enabled() bool {
	return m != nil && !m.null
}

// TileSize returns the edge length in page units of tiles at scale.
func (m *TileManager) TileSize(scale float64) float64 {
	return roundHalfUp(float64(m.Unit) / scale)
}

// ActiveTiles returns the tiles covering a tilesWide x tilesHigh block whose
// top-left tile starts at (x, y) in page units. The first call for a (page,
// scale) anchors the table at (x, y); later calls index relative to that
// anchor, growing the table up and left by unshifting and filling gaps to
// the left of any newly created tile. Repeated calls with the same arguments
// return the same tile pointers.
func (m *TileManager) ActiveTiles(page *Node, scale, x, y float64, tilesWide, tilesHigh int) []*Tile {
	if !m.Enabled() || tilesWide <= 0 || tilesHigh <= 0 || scale <= 0 {
		return nil
	}
	size := m.TileSize(scale)
	scales := m.pages[page]
	if scales == nil {
		scales = make(map[float64]tileTable)
		m.pages[page] = scales
	}
	table := scales[scale]
	res := make([]*Tile, 0, tilesWide*tilesHigh)
	newTile := func(tx, ty float64) *Tile {
		return &Tile{X: tx, Y: ty, Size: size, Scale: scale}
	}

	if len(table) == 0 {
		for i := 0; i < tilesHigh; i++ {
			row := make([]*Tile, tilesWide)
			for j := range row {
				row[j] = newTile(x+float64(j)*size, y+float64(i)*size)
				res = append(res, row[j])
			}
			table = append(table, row)
		}
		scales[scale] = table
		return res
	}

	first := table[0][0]
	ox := int(roundHalfUp((x - first.X) / size))
	oy := int(roundHalfUp((y - first.Y) / size))
	for ; oy < 0; oy++ {
		table = append(tileTable{{newTile(first.X, first.Y-size)}}, table...)
		first = table[0][0]
	}
	for ; ox < 0; ox++ {
		for i, row := range table {
			if len(row) == 0 {
				continue
			}
			t := row[0]
			table[i] = append([]*Tile{newTile(t.X-size, t.Y)}, row...)
		}
	}
	first = table[0][0]

	for i := oy; i < oy+tilesHigh; i++ {
		for len(table) <= i {
			table = append(table, nil)
		}
		row := table[i]
		for j := ox; j < ox+tilesWide; j++ {
			for len(row) <= j {
				row = append(row, nil)
			}
			if row[j] != nil {
				res = append(res, row[j])
				continue
			}
			t := newTile(first.X+float64(j)*size, first.Y+float64(i)*size)
			row[j] = t
			for k := j - 1; k >= 0 && row[k] == nil; k-- {
				row[k] = newTile(first.X+float64(k)*size, first.Y+float64(i)*size)
			}
			res = append(res, t)
		}
		table[i] = row
	}
	scales[scale] = table
	return res
}

// ReleasePage destroys every tile of page and frees their textures.
func (m *TileManager) ReleasePage(page *Node, dev Device) {
	if !m.Enabled() {
		return
	}
	for _, table := range m.pages[page] {
		releaseTable(table, dev)
	}
	delete(m.pages, page)
}

// Release destroys all tiles of all pages.
func (m *TileManager) Release(dev Device) {
	if !m.Enabled() {
		return
	}
	for page := range m.pages {
		m.ReleasePage(page, dev)
	}
}

// NumTiles returns how many tiles exist for page at scale.
func (m *TileManager) NumTiles(page *Node, scale float64) int {
	if !m.Enabled() {
		return 0
	}
	n := 0
	for _, row := range m.pages[page][scale] {
		for _, t := range row {
			if t != nil {
				n++
			}
		}
	}
	return n
}

func releaseTable(table tileTable, dev Device) {
	for _, row := range table {
		for _, t := range row {
			if t != nil && t.tex != nil {
				if dev != nil {
					dev.Release(t.tex)
				}
				t.tex = nil
			}
		}
	}
}
