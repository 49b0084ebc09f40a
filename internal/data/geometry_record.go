package data

import (
	"fmt"

	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
	"github.com/ecopia-map/quadtree_tiler/internal/triangulator"
)

// One row of the geometry table, already decoded. Colors and Attributes are empty when the
// corresponding optional column is not configured or the row holds NULL.
type GeometryRecord struct {
	Faces      []triangulator.Face
	Colors     []string
	Attributes []string
}

func NewGeometryRecord(faces [][]geometry.Coordinate, colors []string, attributes []string) *GeometryRecord {
	r := &GeometryRecord{
		Faces:      make([]triangulator.Face, len(faces)),
		Colors:     colors,
		Attributes: attributes,
	}
	for i, f := range faces {
		r.Faces[i] = f
	}
	return r
}

// FirstAttribute returns the first attribute of the record, if any
func (r *GeometryRecord) FirstAttribute() (string, bool) {
	if len(r.Attributes) == 0 {
		return "", false
	}
	return r.Attributes[0], true
}

// Contains the triangles of a whole tile along with the batch table values, one per batch id
type TileMesh struct {
	Triangles            []*triangulator.Triangle
	Attributes           []string
	HasAttributes        bool
	DegeneratedTriangles int
}

// TriangulateRecords triangulates the records in order, using the record position as batch id
func TriangulateRecords(records []*GeometryRecord) (*TileMesh, error) {
	mesh := &TileMesh{}
	for batchID, record := range records {
		res, err := triangulator.GetTriangles(record.Faces, record.Colors, batchID)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", batchID, err)
		}
		mesh.Triangles = append(mesh.Triangles, res.Triangles...)
		mesh.DegeneratedTriangles += res.DegeneratedTriangles

		attribute, ok := record.FirstAttribute()
		if ok {
			mesh.HasAttributes = true
		}
		mesh.Attributes = append(mesh.Attributes, attribute)
	}
	return mesh, nil
}

// BatchLength is the number of source records, used as b3dm BATCH_LENGTH
func (m *TileMesh) BatchLength() int {
	return len(m.Attributes)
}
