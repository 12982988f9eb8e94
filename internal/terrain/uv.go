package terrain

// ComputeUVs maps each vertex's planar position onto [0, 1] texture space:
// u = (x + size/2) / size, v = (y + size/2) / size.
// Vertices outside the tile produce coordinates outside [0, 1]; they are not clamped.
func ComputeUVs(positions []float32, size float32) []float32 {
	count := len(positions) / 3
	uvs := make([]float32, count*2)
	half := size / 2

	for i := 0; i < count; i++ {
		uvs[i*2] = (positions[i*3] + half) / size
		uvs[i*2+1] = (positions[i*3+1] + half) / size
	}
	return uvs
}
