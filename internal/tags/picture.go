package tags

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/go-flac"
)

// Picture is a decoded FLAC PICTURE block as carried in a METADATA_BLOCK_PICTURE comment.
type Picture struct {
	PictureType uint32
	MIME        string
	Description string
	Width       uint32
	Height      uint32
	Depth       uint32
	Colors      uint32
	Data        []byte
}

const maxPictureField = 16 << 20

// DecodePictureComment decodes the base64 value of a METADATA_BLOCK_PICTURE comment.
func DecodePictureComment(value string) (*Picture, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("decode picture base64: %w", err)
	}
	return ParsePicture(&flac.MetaDataBlock{Type: flac.Picture, Data: raw})
}

// ParsePicture decodes a FLAC PICTURE metadata block.
func ParsePicture(block *flac.MetaDataBlock) (*Picture, error) {
	if block == nil {
		return nil, errors.New("not a picture block")
	}
	if err := checkPictureLayout(block.Data); err != nil {
		return nil, err
	}

	meta, err := flacpicture.ParseFromMetaDataBlock(*block)
	if err != nil {
		return nil, fmt.Errorf("parse picture block: %w", err)
	}

	p := &Picture{
		PictureType: uint32(meta.PictureType),
		MIME:        meta.MIME,
		Description: meta.Description,
		Width:       meta.Width,
		Height:      meta.Height,
		Depth:       meta.ColorDepth,
		Colors:      meta.IndexedColorCount,
		Data:        meta.ImageData,
	}
	if len(p.Data) == 0 {
		return nil, errors.New("picture has no image data")
	}
	if p.MIME == "" || p.MIME == "-->" {
		p.MIME = http.DetectContentType(p.Data)
	}
	return p, nil
}

// DecodeCoverArt decodes a legacy base64 COVERART comment holding raw image bytes.
func DecodeCoverArt(value, mime string) (*Picture, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("decode coverart base64: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("coverart is empty")
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return &Picture{PictureType: 3, MIME: mime, Data: data}, nil
}

// Ext returns a file extension for the picture's MIME type.
func (p *Picture) Ext() string {
	switch strings.ToLower(p.MIME) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/bmp":
		return ".bmp"
	default:
		return ".jpg"
	}
}

// checkPictureLayout rejects blocks whose length prefixes run past the end of data.
func checkPictureLayout(data []byte) error {
	off := 4 // picture type
	field := func(name string) error {
		if len(data) < off+4 {
			return fmt.Errorf("picture block truncated before %s", name)
		}
		n := int(binary.BigEndian.Uint32(data[off:]))
		if n > maxPictureField || off+4+n > len(data) {
			return fmt.Errorf("picture %s length %d exceeds block", name, n)
		}
		off += 4 + n
		return nil
	}

	if err := field("mime"); err != nil {
		return err
	}
	if err := field("description"); err != nil {
		return err
	}
	off += 16 // width, height, depth, colors
	return field("image data")
}
