package b3dm

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/ecopia-map/quadtree_tiler/internal/data"
	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
	"github.com/ecopia-map/quadtree_tiler/internal/triangulator"
)

var ErrInvalidColor = errors.New("invalid hex color")

// vertex attribute holding the feature index, as required by b3dm
const BatchIDAttribute = "_BATCHID"

const generator = "quadtree_tiler"

// used when triangles carry no color
var defaultColor = [4]float64{0.5, 0.5, 0.5, 1}

// triangles sharing the same color, rendered with a single material
type colorGroup struct {
	color     string
	triangles []*triangulator.Triangle
}

// ParseHexColor converts "#rrggbb" or "#rrggbbaa" into linear rgba factors in [0,1]
func ParseHexColor(hex string) ([4]float64, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) != 6 && len(s) != 8 {
		return [4]float64{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return [4]float64{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	return [4]float64{
		float64(v>>24&0xff) / 255,
		float64(v>>16&0xff) / 255,
		float64(v>>8&0xff) / 255,
		float64(v&0xff) / 255,
	}, nil
}

// toYUp moves a source coordinate (z up) into the glTF frame (y up)
func toYUp(c geometry.Coordinate) [3]float32 {
	return [3]float32{float32(c.X), float32(c.Z), float32(-c.Y)}
}

func groupByColor(triangles []*triangulator.Triangle) []*colorGroup {
	var groups []*colorGroup
	byColor := make(map[string]*colorGroup)
	for _, t := range triangles {
		g, ok := byColor[t.Color]
		if !ok {
			g = &colorGroup{color: t.Color}
			byColor[t.Color] = g
			groups = append(groups, g)
		}
		g.triangles = append(g.triangles, t)
	}
	return groups
}

func newMaterial(hex string) (*gltf.Material, error) {
	color := defaultColor
	if hex != "" {
		c, err := ParseHexColor(hex)
		if err != nil {
			return nil, err
		}
		color = c
	}

	material := &gltf.Material{
		DoubleSided: true,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &color,
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
	}
	if color[3] < 1 {
		material.AlphaMode = gltf.AlphaBlend
	}
	return material, nil
}

// EncodeGlb packs the triangles of the mesh in a binary glTF, one primitive per color. Vertex positions
// are expressed relative to the translation, which is the origin of the tileset local frame.
func EncodeGlb(mesh *data.TileMesh, translation geometry.Coordinate) ([]byte, error) {
	doc := gltf.NewDocument()
	doc.Asset.Generator = generator
	doc.Buffers = nil

	if len(mesh.Triangles) > 0 {
		doc.Buffers = []*gltf.Buffer{{}}
		gltfMesh := &gltf.Mesh{}
		for _, group := range groupByColor(mesh.Triangles) {
			material, err := newMaterial(group.color)
			if err != nil {
				return nil, err
			}
			doc.Materials = append(doc.Materials, material)

			positions, normals, batchIDs := vertexData(group.triangles, translation)
			gltfMesh.Primitives = append(gltfMesh.Primitives, &gltf.Primitive{
				Material: gltf.Index(len(doc.Materials) - 1),
				Attributes: map[string]int{
					gltf.POSITION:    modeler.WritePosition(doc, positions),
					gltf.NORMAL:      modeler.WriteNormal(doc, normals),
					BatchIDAttribute: modeler.WriteAccessor(doc, gltf.TargetArrayBuffer, batchIDs),
				},
			})
		}

		doc.Meshes = []*gltf.Mesh{gltfMesh}
		doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0)}}
		doc.Scenes[0].Nodes = []int{0}
	}

	var buf bytes.Buffer
	encoder := gltf.NewEncoder(&buf)
	encoder.AsBinary = true
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding glb: %w", err)
	}
	return buf.Bytes(), nil
}

// non indexed vertices, three per triangle, with the flat normal of the triangle
func vertexData(triangles []*triangulator.Triangle, translation geometry.Coordinate) (positions, normals [][3]float32, batchIDs []float32) {
	positions = make([][3]float32, 0, len(triangles)*3)
	normals = make([][3]float32, 0, len(triangles)*3)
	batchIDs = make([]float32, 0, len(triangles)*3)

	for _, t := range triangles {
		n := toYUp(t.Normal())
		for _, p := range []geometry.Coordinate{t.P0, t.P1, t.P2} {
			positions = append(positions, toYUp(p.Sub(translation)))
			normals = append(normals, n)
			batchIDs = append(batchIDs, float32(t.BatchID))
		}
	}
	return positions, normals, batchIDs
}
