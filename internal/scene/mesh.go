package scene

// Mesh is a batch of boxes merged into flat buffers, ready for a single
// draw call. Positions and Colors hold 3 and 4 floats per vertex.
type Mesh struct {
	Positions []float32 `json:"positions"`
	Colors    []float32 `json:"colors"`
	Indices   []uint32  `json:"indices"`
}

// Vertices returns the vertex count.
func (m *Mesh) Vertices() int {
	return len(m.Positions) / 3
}

const (
	boxVertices = 8
	boxIndices  = 36
)

// cube corners are indexed x + 2y + 4z; x, y in {-0.5, 0.5}, z in {0, 1}
// so the box stands on its base point.
var boxTriangles = [boxIndices]uint32{
	0, 2, 1, 1, 2, 3, // base
	4, 5, 6, 5, 7, 6, // top
	0, 1, 4, 1, 5, 4, // -y
	2, 6, 3, 3, 6, 7, // +y
	0, 4, 2, 2, 4, 6, // -x
	1, 3, 5, 3, 7, 5, // +x
}

// MergeBoxes bakes every box's transform and color into one mesh.
func MergeBoxes(boxes []Box) Mesh {
	m := Mesh{
		Positions: make([]float32, 0, len(boxes)*boxVertices*3),
		Colors:    make([]float32, 0, len(boxes)*boxVertices*4),
		Indices:   make([]uint32, 0, len(boxes)*boxIndices),
	}

	for i, b := range boxes {
		ax, ay, az := b.Basis()
		ax = ax.Mul(b.Scale.X)
		ay = ay.Mul(b.Scale.Y)
		az = az.Mul(b.Scale.Z)

		for c := 0; c < boxVertices; c++ {
			x := float64(c&1) - 0.5
			y := float64(c>>1&1) - 0.5
			z := float64(c >> 2 & 1)

			p := b.Position.Add(ax.Mul(x)).Add(ay.Mul(y)).Add(az.Mul(z))
			m.Positions = append(m.Positions, float32(p.X), float32(p.Y), float32(p.Z))
			m.Colors = append(m.Colors, float32(b.Color.R), float32(b.Color.G), float32(b.Color.B), float32(b.Color.A))
		}

		base := uint32(i * boxVertices)
		for _, idx := range boxTriangles {
			m.Indices = append(m.Indices, base+idx)
		}
	}

	return m
}
