// Package respparse turns the external OCR provider's flat block list into a
// typed Page/Line/Word tree, dereferencing CHILD relationships. Grounded on
// original_source/ocr/textract_schema.py and textract_api_schema.py's
// Pydantic models (`TBlock`/`TPage`/`TLine`/`TWord`, `child_ids` via the
// CHILD relationship group).
package respparse

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/geopdf/scanocr/ocr"
)

type rawPoint struct {
	X float64 `json:"X"`
	Y float64 `json:"Y"`
}

type rawBoundingBox struct {
	Width  float64 `json:"Width"`
	Height float64 `json:"Height"`
	Left   float64 `json:"Left"`
	Top    float64 `json:"Top"`
}

type rawGeometry struct {
	BoundingBox   rawBoundingBox `json:"BoundingBox"`
	Polygon       []rawPoint     `json:"Polygon"`
	RotationAngle *float64       `json:"RotationAngle"`
}

type rawRelationship struct {
	Type string   `json:"Type"`
	Ids  []string `json:"Ids"`
}

// rawBlock maps every block kind onto one struct; unrecognized JSON fields
// are ignored by encoding/json, and unrecognized BlockType values are simply
// skipped by Parse (per spec.md §4.6: "ignore unknown block kinds and
// unknown schema fields").
type rawBlock struct {
	Id            string            `json:"Id"`
	BlockType     string            `json:"BlockType"`
	Text          string            `json:"Text"`
	Confidence    *float64          `json:"Confidence"`
	Geometry      *rawGeometry      `json:"Geometry"`
	Relationships []rawRelationship `json:"Relationships"`
}

func (b *rawBlock) childIDs() []string {
	var ids []string
	for _, r := range b.Relationships {
		if r.Type == "CHILD" {
			ids = append(ids, r.Ids...)
		}
	}
	return ids
}

// Geometry holds a block's normalized (0..1) bounding box and four-corner
// polygon, in the provider's standardized corner order (top-left, top-right,
// bottom-right, bottom-left).
type Geometry struct {
	BoundingBox   ocr.Rectangle
	Polygon       [4]ocr.Point
	RotationAngle float64
	HasRotation   bool
}

// Word is a single recognized word with its own geometry (word-level
// rotation, per spec.md §4.7, is reported with more precision than
// line-level rotation).
type Word struct {
	Text       string
	Confidence float64
	Geometry   Geometry
}

// Line is a recognized line of text with its ordered constituent words.
type Line struct {
	Text       string
	Confidence float64
	Geometry   Geometry
	Words      []Word
}

// Page is one OCR'd page, built from the provider's PAGE block and its LINE
// descendants (WORD grandchildren are attached to their owning Line).
type Page struct {
	Lines []Line
}

// Document is the parsed provider response.
type Document struct {
	Pages []Page
}

// Parse builds a Document from raw provider JSON.
func Parse(data []byte) (*Document, error) {
	var resp struct {
		Blocks []rawBlock `json:"Blocks"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, "unmarshal ocr response")
	}

	byID := make(map[string]*rawBlock, len(resp.Blocks))
	for i := range resp.Blocks {
		byID[resp.Blocks[i].Id] = &resp.Blocks[i]
	}

	var doc Document
	for i := range resp.Blocks {
		if resp.Blocks[i].BlockType != "PAGE" {
			continue
		}
		doc.Pages = append(doc.Pages, buildPage(&resp.Blocks[i], byID))
	}
	return &doc, nil
}

func buildPage(page *rawBlock, byID map[string]*rawBlock) Page {
	var p Page
	for _, id := range page.childIDs() {
		child, ok := byID[id]
		if !ok || child.BlockType != "LINE" {
			continue
		}
		p.Lines = append(p.Lines, buildLine(child, byID))
	}
	return p
}

func buildLine(line *rawBlock, byID map[string]*rawBlock) Line {
	l := Line{
		Text:       line.Text,
		Confidence: confidenceOf(line),
		Geometry:   geometryOf(line.Geometry),
	}
	for _, id := range line.childIDs() {
		child, ok := byID[id]
		if !ok || child.BlockType != "WORD" {
			continue
		}
		l.Words = append(l.Words, Word{
			Text:       child.Text,
			Confidence: confidenceOf(child),
			Geometry:   geometryOf(child.Geometry),
		})
	}
	return l
}

func confidenceOf(b *rawBlock) float64 {
	if b.Confidence == nil {
		return 0
	}
	// Stored as a 0..100 percentage by the provider; spec.md §3's
	// TextLine.confidence is 0..1.
	return *b.Confidence / 100
}

func geometryOf(g *rawGeometry) Geometry {
	if g == nil {
		return Geometry{}
	}
	bb := g.BoundingBox
	out := Geometry{
		BoundingBox: ocr.NewRectangle(bb.Left, bb.Top, bb.Left+bb.Width, bb.Top+bb.Height),
	}
	for i := 0; i < 4 && i < len(g.Polygon); i++ {
		out.Polygon[i] = ocr.Point{X: g.Polygon[i].X, Y: g.Polygon[i].Y}
	}
	if g.RotationAngle != nil {
		out.RotationAngle = *g.RotationAngle
		out.HasRotation = true
	}
	return out
}
