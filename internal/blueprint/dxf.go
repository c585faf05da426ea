package blueprint

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// binarySentinel opens every binary DXF file.
var binarySentinel = []byte("AutoCAD Binary DXF")

// subEntities belong to the preceding entity and are not counted on their
// own.
var subEntities = map[string]bool{"VERTEX": true, "SEQEND": true, "ATTRIB": true}

// drawing accumulates model-space entities from the ENTITIES section.
type drawing struct {
	counts map[string]int
	total  int
	bounds *geom.Bounds
}

// entity is the entity currently being read.
type entity struct {
	kind       string
	paperSpace bool
	// LINE endpoints: group codes 10/20 and 11/21.
	x1, y1, x2, y2 float64
}

// parse walks the group-code/value pairs of an ASCII DXF file.
func parse(r io.Reader) (*drawing, error) {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(binarySentinel)); bytes.Equal(head, binarySentinel) {
		return nil, eris.New("dxf: binary DXF is not supported")
	}

	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	d := &drawing{counts: make(map[string]int), bounds: geom.NewBounds(geom.XY)}
	var (
		section    string
		inSection  bool
		sections   int
		expectName bool
		cur        *entity
		pairs      int
		eof        bool
	)

	for !eof {
		if !sc.Scan() {
			break
		}
		codeLine := strings.TrimSpace(sc.Text())
		if !sc.Scan() {
			return nil, eris.Errorf("dxf: group code %q has no value", codeLine)
		}
		value := strings.TrimSpace(sc.Text())
		pairs++

		code, err := strconv.Atoi(codeLine)
		if err != nil {
			return nil, eris.Errorf("dxf: pair %d: invalid group code %q", pairs, codeLine)
		}

		if expectName {
			if code != 2 {
				return nil, eris.Errorf("dxf: pair %d: SECTION without name", pairs)
			}
			section, expectName = value, false
			continue
		}

		if code == 0 {
			if cur != nil {
				d.add(cur)
				cur = nil
			}
			switch value {
			case "SECTION":
				if inSection {
					return nil, eris.Errorf("dxf: pair %d: nested SECTION", pairs)
				}
				inSection, expectName = true, true
				sections++
			case "ENDSEC":
				if !inSection {
					return nil, eris.Errorf("dxf: pair %d: ENDSEC outside a section", pairs)
				}
				inSection, section = false, ""
			case "EOF":
				eof = true
			default:
				if inSection && section == "ENTITIES" {
					cur = &entity{kind: value}
				}
			}
			continue
		}

		if cur != nil {
			if err := cur.set(code, value); err != nil {
				return nil, eris.Wrapf(err, "dxf: pair %d", pairs)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "dxf: read")
	}
	if inSection || expectName {
		return nil, eris.New("dxf: unterminated section")
	}
	if sections == 0 {
		return nil, eris.New("dxf: no sections")
	}
	return d, nil
}

func (e *entity) set(code int, value string) error {
	switch code {
	case 67:
		e.paperSpace = value == "1"
	case 10, 20, 11, 21:
		if e.kind != "LINE" {
			return nil
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return eris.Errorf("invalid coordinate %q for group %d", value, code)
		}
		switch code {
		case 10:
			e.x1 = v
		case 20:
			e.y1 = v
		case 11:
			e.x2 = v
		case 21:
			e.y2 = v
		}
	}
	return nil
}

func (d *drawing) add(e *entity) {
	if e.paperSpace || subEntities[e.kind] {
		return
	}
	d.total++
	d.counts[e.kind]++
	if e.kind == "LINE" {
		d.bounds.Extend(geom.NewLineStringFlat(geom.XY, []float64{e.x1, e.y1, e.x2, e.y2}))
	}
}
