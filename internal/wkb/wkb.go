package wkb

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
)

var ErrUnsupportedGeometry = errors.New("unsupported geometry")

type GeometryType uint32

const (
	Polygon           GeometryType = 3
	MultiPolygon      GeometryType = 6
	Collection        GeometryType = 7
	PolyhedralSurface GeometryType = 15
	TIN               GeometryType = 16
	Triangle          GeometryType = 17
)

// EWKB flags, as written by PostGIS
const (
	ewkbZ    uint32 = 0x80000000
	ewkbM    uint32 = 0x40000000
	ewkbSRID uint32 = 0x20000000
)

func (t GeometryType) String() string {
	switch t {
	case Polygon:
		return "Polygon"
	case MultiPolygon:
		return "MultiPolygon"
	case Collection:
		return "GeometryCollection"
	case PolyhedralSurface:
		return "PolyhedralSurface"
	case TIN:
		return "TIN"
	case Triangle:
		return "Triangle"
	}
	return fmt.Sprintf("type %d", uint32(t))
}

// Geometry is a decoded surface geometry, flattened into the exterior rings of its polygons.
// Interior rings are read and discarded.
type Geometry struct {
	Type  GeometryType
	SRID  int
	HasZ  bool
	Faces [][]geometry.Coordinate
}

type header struct {
	order   binary.ByteOrder
	gtype   GeometryType
	hasZ    bool
	hasM    bool
	srid    int
	hasSRID bool
}

type decoder struct {
	r *bytes.Reader
}

// Decode reads an ISO WKB or EWKB geometry
func Decode(data []byte) (*Geometry, error) {
	d := &decoder{r: bytes.NewReader(data)}
	h, err := d.readHeader()
	if err != nil {
		return nil, err
	}

	g := &Geometry{Type: h.gtype, SRID: h.srid, HasZ: h.hasZ}
	if err := d.readBody(h, g); err != nil {
		return nil, err
	}
	return g, nil
}

// DecodeHex reads the hex text form returned by PostGIS for plain geometry columns
func DecodeHex(s string) (*Geometry, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedGeometry, err)
	}
	return Decode(data)
}

func (d *decoder) readHeader() (*header, error) {
	orderByte, err := d.r.ReadByte()
	if err != nil {
		return nil, d.wrap(err)
	}

	h := &header{}
	switch orderByte {
	case 0:
		h.order = binary.BigEndian
	case 1:
		h.order = binary.LittleEndian
	default:
		return nil, fmt.Errorf("%w: invalid byte order %d", ErrUnsupportedGeometry, orderByte)
	}

	var raw uint32
	if err := binary.Read(d.r, h.order, &raw); err != nil {
		return nil, d.wrap(err)
	}

	h.hasZ = raw&ewkbZ != 0
	h.hasM = raw&ewkbM != 0
	h.hasSRID = raw&ewkbSRID != 0
	raw &^= ewkbZ | ewkbM | ewkbSRID

	// ISO dimensions are encoded in the thousands
	switch raw / 1000 {
	case 1:
		h.hasZ = true
	case 2:
		h.hasM = true
	case 3:
		h.hasZ = true
		h.hasM = true
	}
	h.gtype = GeometryType(raw % 1000)

	if h.hasSRID {
		var srid uint32
		if err := binary.Read(d.r, h.order, &srid); err != nil {
			return nil, d.wrap(err)
		}
		h.srid = int(srid)
	}
	return h, nil
}

func (d *decoder) readBody(h *header, g *Geometry) error {
	switch h.gtype {
	case Polygon, Triangle:
		ring, err := d.readPolygon(h)
		if err != nil {
			return err
		}
		g.Faces = append(g.Faces, ring)
		return nil
	case MultiPolygon, PolyhedralSurface, TIN, Collection:
		n, err := d.readCount(h.order)
		if err != nil {
			return err
		}
		for i := uint32(0); i < n; i++ {
			part, err := d.readHeader()
			if err != nil {
				return err
			}
			if !allowedPart(h.gtype, part.gtype) {
				return fmt.Errorf("%w: %s inside %s", ErrUnsupportedGeometry, part.gtype, h.gtype)
			}
			if err := d.readBody(part, g); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedGeometry, h.gtype)
}

func allowedPart(parent, part GeometryType) bool {
	switch parent {
	case MultiPolygon, PolyhedralSurface:
		return part == Polygon
	case TIN:
		return part == Triangle
	case Collection:
		return part != Collection
	}
	return false
}

// reads all the rings of a polygon, keeping only the exterior one
func (d *decoder) readPolygon(h *header) ([]geometry.Coordinate, error) {
	numRings, err := d.readCount(h.order)
	if err != nil {
		return nil, err
	}

	var exterior []geometry.Coordinate
	for i := uint32(0); i < numRings; i++ {
		ring, err := d.readRing(h)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			exterior = ring
		}
	}
	return exterior, nil
}

func (d *decoder) readRing(h *header) ([]geometry.Coordinate, error) {
	numPoints, err := d.readCount(h.order)
	if err != nil {
		return nil, err
	}

	dims := 2
	if h.hasZ {
		dims++
	}
	if h.hasM {
		dims++
	}
	if int64(numPoints)*int64(dims)*8 > int64(d.r.Len()) {
		return nil, fmt.Errorf("%w: ring of %d points exceeds the remaining %d bytes", ErrUnsupportedGeometry, numPoints, d.r.Len())
	}

	values := make([]float64, dims)
	ring := make([]geometry.Coordinate, numPoints)
	for i := range ring {
		if err := binary.Read(d.r, h.order, values); err != nil {
			return nil, d.wrap(err)
		}
		ring[i].X = values[0]
		ring[i].Y = values[1]
		if h.hasZ {
			ring[i].Z = values[2]
		}
	}
	return ring, nil
}

func (d *decoder) readCount(order binary.ByteOrder) (uint32, error) {
	var n uint32
	if err := binary.Read(d.r, order, &n); err != nil {
		return 0, d.wrap(err)
	}
	return n, nil
}

func (d *decoder) wrap(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated input", ErrUnsupportedGeometry)
	}
	return err
}

// EncodePolyhedralSurfaceZ writes the faces as a little endian ISO PolyhedralSurface Z.
// Every face becomes a polygon with a single ring.
func EncodePolyhedralSurfaceZ(faces [][]geometry.Coordinate) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, uint32(PolyhedralSurface)+1000)
	writeUint32(&buf, uint32(len(faces)))
	for _, face := range faces {
		writeHeader(&buf, uint32(Polygon)+1000)
		writeUint32(&buf, 1)
		writeUint32(&buf, uint32(len(face)))
		for _, c := range face {
			writeFloat64(&buf, c.X)
			writeFloat64(&buf, c.Y)
			writeFloat64(&buf, c.Z)
		}
	}
	return buf.Bytes()
}

func writeHeader(buf *bytes.Buffer, gtype uint32) {
	buf.WriteByte(1)
	writeUint32(buf, gtype)
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeFloat64(buf *bytes.Buffer, v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}
