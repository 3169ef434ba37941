package pdfdoc

import (
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"

	"github.com/geopdf/scanocr/bbox"
	"github.com/geopdf/scanocr/ocr"
)

// Images returns the list of images placed directly on the page, with
// format classification via mimetype (used to tell a jpx-encoded image from
// a plain jpeg or a jb2 scan, per spec.md §4.2's Replace-JPX and Crop
// steps).
func (p *PageRef) Images() ([]ocr.ImageInfo, error) {
	content, err := p.content()
	if err != nil {
		return nil, err
	}
	_, placements, err := bbox.Classify(content)
	if err != nil {
		return nil, err
	}

	x := p.doc.ctx.XRefTable
	resDict, err := dictEntry(x, p.dict, "Resources")
	if err != nil {
		return nil, err
	}
	xobjDict, err := dictEntry(x, resDict, "XObject")
	if err != nil {
		return nil, err
	}

	var infos []ocr.ImageInfo
	for _, placement := range placements {
		ref, ok := xobjDict[placement.Name]
		if !ok {
			continue
		}
		ir, ok := ref.(types.IndirectRef)
		if !ok {
			continue
		}
		obj, err := x.Dereference(ir)
		if err != nil {
			return nil, errors.Wrapf(err, "dereference xobject %s", placement.Name)
		}
		sd, ok := obj.(types.StreamDict)
		if !ok {
			continue
		}
		width, _ := intDictValue(sd.Dict, "Width")
		height, _ := intDictValue(sd.Dict, "Height")
		infos = append(infos, ocr.ImageInfo{
			Xref:      int(ir.ObjectNumber.Value()),
			Width:     width,
			Height:    height,
			Bbox:      placement.Rect,
			Transform: placement.Transform,
			Ext:       classifyExt(sd.Dict, sd.Raw),
			Size:      len(sd.Raw),
		})
	}
	return infos, nil
}

// ImageBytes returns the raw encoded bytes of the image object identified by
// xref, as stored in the xref table (same representation ReplaceImage
// writes back).
func (p *PageRef) ImageBytes(xref int) ([]byte, error) {
	entry, found := p.doc.ctx.XRefTable.Table[xref]
	if !found {
		return nil, errors.Errorf("image object %d not found", xref)
	}
	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return nil, errors.Errorf("image object %d is not a stream", xref)
	}
	return sd.Raw, nil
}

func intDictValue(d types.Dict, key string) (int, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case types.Integer:
		return int(n), true
	case types.Float:
		return int(n), true
	default:
		return 0, false
	}
}

// classifyExt determines the short extension form the Page Normalizer
// branches on ("jpx", "jb2", "jpeg", "png", ...). The stream's /Filter name
// is authoritative when present (pdfcpu preserves the original encoding);
// a filter that doesn't map directly to an image codec (e.g. a bare
// FlateDecode-compressed raster) is reported as "png". mimetype sniffing of
// the raw bytes is the fallback only when there is no /Filter name.
func classifyExt(d types.Dict, raw []byte) string {
	if filter, ok := d["Filter"]; ok {
		switch f := filter.(type) {
		case types.Name:
			return extForFilter(string(f))
		case types.Array:
			if len(f) > 0 {
				if n, ok := f[len(f)-1].(types.Name); ok {
					return extForFilter(string(n))
				}
			}
		}
	}
	mt := mimetype.Detect(raw)
	switch mt.Extension() {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".jp2", ".jpx":
		return "jpx"
	case ".jb2":
		return "jb2"
	case ".png":
		return "png"
	default:
		return mt.Extension()
	}
}

func extForFilter(name string) string {
	switch name {
	case "DCTDecode":
		return "jpeg"
	case "JPXDecode":
		return "jpx"
	case "JBIG2Decode":
		return "jb2"
	case "CCITTFaxDecode":
		return "ccitt"
	default:
		return "png"
	}
}

// ReplaceImage replaces the image at the given object number with newly
// encoded bytes and extension, keeping its position in the content stream
// and its object number (so every reference to it remains valid).
func (p *PageRef) ReplaceImage(xref int, data []byte, ext string) error {
	x := p.doc.ctx.XRefTable
	entry, found := x.Table[xref]
	if !found {
		return errors.Errorf("image object %d not found", xref)
	}
	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return errors.Errorf("image object %d is not a stream", xref)
	}
	sd.Dict["Filter"] = types.Name(filterForExt(ext))
	delete(sd.Dict, "DecodeParms")
	sd.Raw = data
	sd.Content = data
	sd.Dict["Length"] = types.Integer(len(data))
	entry.Object = sd
	return nil
}

func filterForExt(ext string) string {
	switch ext {
	case "jpeg":
		return "DCTDecode"
	case "jpx":
		return "JPXDecode"
	default:
		return "FlateDecode"
	}
}

// DeleteImage removes the image's XObject from the page's resource
// dictionary and drops its entry from the xref table.
func (p *PageRef) DeleteImage(xref int) error {
	x := p.doc.ctx.XRefTable
	resDict, err := dictEntry(x, p.dict, "Resources")
	if err != nil {
		return err
	}
	xobjDict, err := dictEntry(x, resDict, "XObject")
	if err != nil {
		return err
	}
	for name, ref := range xobjDict {
		if ir, ok := ref.(types.IndirectRef); ok && int(ir.ObjectNumber.Value()) == xref {
			delete(xobjDict, name)
		}
	}
	delete(x.Table, xref)
	return nil
}

// InsertImage adds data as a new image XObject on the page under a fresh
// name and returns its object number.
func (p *PageRef) InsertImage(data []byte, ext string, width, height int) (int, error) {
	x := p.doc.ctx.XRefTable
	dict := types.Dict{
		"Type":             types.Name("XObject"),
		"Subtype":          types.Name("Image"),
		"Width":            types.Integer(width),
		"Height":           types.Integer(height),
		"BitsPerComponent": types.Integer(8),
		"ColorSpace":       types.Name("DeviceRGB"),
		"Filter":           types.Name(filterForExt(ext)),
	}
	sd := types.NewStreamDict(dict, int64(len(data)), nil, nil, nil)
	sd.Raw = data
	sd.Content = data

	ir, err := x.IndRefForNewObject(sd)
	if err != nil {
		return 0, errors.Wrap(err, "new image object")
	}

	resDict, err := dictEntry(x, p.dict, "Resources")
	if err != nil {
		return 0, err
	}
	xobjDict, err := dictEntry(x, resDict, "XObject")
	if err != nil {
		return 0, err
	}
	name := freeXObjectName(xobjDict)
	xobjDict[name] = *ir
	return int(ir.ObjectNumber.Value()), nil
}

func freeXObjectName(d types.Dict) string {
	for i := 0; ; i++ {
		name := "Im" + strconv.Itoa(i)
		if _, ok := d[name]; !ok {
			return name
		}
	}
}
