package b3dm

import (
	"github.com/ecopia-map/quadtree_tiler/internal/data"
	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
	"github.com/ecopia-map/quadtree_tiler/tools"
)

const (
	Magic        = "b3dm"
	Version      = 1
	HeaderLength = 28
)

type featureTable struct {
	BatchLength int `json:"BATCH_LENGTH"`
}

// Encode builds a batched 3D model tile: 28 bytes header, feature table, batch table and the glb.
// Every section starts on an 8 bytes boundary and the glb is zero padded up to the next one. The batch table holds one value per batch id under
// attributesName and is omitted when no record carries an attribute.
func Encode(mesh *data.TileMesh, translation geometry.Coordinate, attributesName string) ([]byte, error) {
	glb, err := EncodeGlb(mesh, translation)
	if err != nil {
		return nil, err
	}

	featureTableBytes, err := tools.MarshalPaddedJSON(featureTable{BatchLength: mesh.BatchLength()}, HeaderLength, 8)
	if err != nil {
		return nil, err
	}

	var batchTableBytes []byte
	if mesh.HasAttributes && attributesName != "" {
		batchTable := map[string][]string{attributesName: mesh.Attributes}
		batchTableBytes, err = tools.MarshalPaddedJSON(batchTable, HeaderLength+len(featureTableBytes), 8)
		if err != nil {
			return nil, err
		}
	}

	// the glb chunks are 4 bytes aligned, the tile must end on 8
	glb = tools.PadZero(glb, HeaderLength+len(featureTableBytes)+len(batchTableBytes), 8)

	byteLength := HeaderLength + len(featureTableBytes) + len(batchTableBytes) + len(glb)

	out := make([]byte, 0, byteLength)
	out = append(out, []byte(Magic)...)                                       // magic
	out = append(out, tools.ConvertIntToByteArray(Version)...)                // version number
	out = append(out, tools.ConvertIntToByteArray(byteLength)...)             // total length
	out = append(out, tools.ConvertIntToByteArray(len(featureTableBytes))...) // feature table length
	out = append(out, tools.ConvertIntToByteArray(0)...)                      // feature table binary length
	out = append(out, tools.ConvertIntToByteArray(len(batchTableBytes))...)   // batch table length
	out = append(out, tools.ConvertIntToByteArray(0)...)                      // batch table binary length
	out = append(out, featureTableBytes...)
	out = append(out, batchTableBytes...)
	out = append(out, glb...)

	return out, nil
}
