package tileset

// Structs mapping the tileset.json document. Empty optional fields are omitted from the output.

type Tileset struct {
	Asset          Asset   `json:"asset"`
	GeometricError float64 `json:"geometricError"`
	Root           Root    `json:"root"`
}

type Asset struct {
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

type Root struct {
	GeometricError float64        `json:"geometricError"`
	Refine         string         `json:"refine,omitempty"`
	Transform      []float64      `json:"transform,omitempty"`
	BoundingVolume BoundingVolume `json:"boundingVolume"`
	Children       []Child        `json:"children,omitempty"`
}

type Child struct {
	GeometricError float64         `json:"geometricError"`
	BoundingVolume *BoundingVolume `json:"boundingVolume,omitempty"`
	Content        *Content        `json:"content,omitempty"`
	Children       []Child         `json:"children,omitempty"`
}

type BoundingVolume struct {
	Box    []float64 `json:"box,omitempty"`
	Region []float64 `json:"region,omitempty"`
}

type Content struct {
	Uri string `json:"uri"`
}
