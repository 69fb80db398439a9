// package tags reads metadata from source files with ffprobe and maps it to destination tag names.
package tags

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mp3cator/internal/models"
	"github.com/desertthunder/mp3cator/internal/shared"
)

// folder images tried, in order, when a source has no embedded artwork
var folderCovers = []string{"cover.jpg", "cover.jpeg", "cover.png", "folder.jpg", "folder.png", "front.jpg"}

// MediaInfo is the subset of ffprobe's JSON output used here.
type MediaInfo struct {
	Streams []MediaStream `json:"streams"`
	Format  MediaFormat   `json:"format"`
}

// MediaStream is one stream entry.
type MediaStream struct {
	Index       int               `json:"index"`
	CodecType   string            `json:"codec_type"`
	CodecName   string            `json:"codec_name"`
	Tags        map[string]string `json:"tags"`
	Disposition struct {
		AttachedPic int `json:"attached_pic"`
	} `json:"disposition"`
}

// MediaFormat is the container entry.
type MediaFormat struct {
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Tags       map[string]string `json:"tags"`
}

// ParseJSON decodes ffprobe -print_format json output.
func ParseJSON(data []byte) (*MediaInfo, error) {
	var res MediaInfo
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return &res, nil
}

// RawTags merges container tags then audio stream tags (stream wins) with lowercased keys.
func (p *MediaInfo) RawTags() map[string]string {
	out := map[string]string{}
	for k, v := range p.Format.Tags {
		out[strings.ToLower(k)] = v
	}
	if s := p.AudioStream(); s != nil {
		for k, v := range s.Tags {
			out[strings.ToLower(k)] = v
		}
	}
	return out
}

// AudioStream returns the first audio stream, or nil.
func (p *MediaInfo) AudioStream() *MediaStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "audio" {
			return &p.Streams[i]
		}
	}
	return nil
}

// AttachedPicture returns the index of the first attached picture stream.
func (p *MediaInfo) AttachedPicture() (int, bool) {
	for _, s := range p.Streams {
		if s.CodecType == "video" && s.Disposition.AttachedPic == 1 {
			return s.Index, true
		}
	}
	return 0, false
}

// Artwork is either a stream inside the source, an image decoded from a comment, or a file next to the source.
type Artwork struct {
	StreamIndex int      // Used when FromStream is true
	FromStream  bool     // Map the source's attached picture stream
	Picture     *Picture // Decoded picture bytes
	Path        string   // Image file on disk
}

// Metadata is what the extractor found for one file.
type Metadata struct {
	Tags    models.Tags
	Artwork *Artwork
	Warning string // Non-fatal artwork problem
}

// ExtractorOpts configures an [Extractor].
type ExtractorOpts struct {
	Runner      shared.CommandRunner
	FFprobe     string
	Timeout     time.Duration
	FolderCover bool
	Logger      *log.Logger
}

// Extractor runs ffprobe against a source and maps its tags.
type Extractor struct {
	runner      shared.CommandRunner
	bin         string
	timeout     time.Duration
	folderCover bool
	logger      *log.Logger
}

// NewExtractor creates an Extractor, defaulting to the real ffprobe.
func NewExtractor(opts ExtractorOpts) *Extractor {
	if opts.Runner == nil {
		opts.Runner = shared.ExecRunner{}
	}
	if opts.FFprobe == "" {
		opts.FFprobe = "ffprobe"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Extractor{
		runner:      opts.Runner,
		bin:         opts.FFprobe,
		timeout:     opts.Timeout,
		folderCover: opts.FolderCover,
		logger:      opts.Logger,
	}
}

// Extract runs ffprobe on path and returns its mapped tags and artwork.
//
// Any failure is returned as a [shared.TagExtractionError]; callers convert without tags.
func (e *Extractor) Extract(ctx context.Context, path string) (*Metadata, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	stdout, stderr, err := e.runner.Run(ctx, e.bin,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			err = fmt.Errorf("%w: %s", err, lastLine(msg))
		}
		return nil, &shared.TagExtractionError{Path: path, Err: err}
	}

	info, err := ParseJSON(stdout)
	if err != nil {
		return nil, &shared.TagExtractionError{Path: path, Err: err}
	}

	tags, art := MapTags(info.RawTags())
	md := &Metadata{Tags: tags}

	if idx, ok := info.AttachedPicture(); ok {
		md.Artwork = &Artwork{StreamIndex: idx, FromStream: true}
	} else if pic, err := pictureFromComments(art); err != nil {
		md.Warning = err.Error()
		e.logger.Warn("ignoring embedded artwork", "file", path, "err", err)
	} else if pic != nil {
		md.Artwork = &Artwork{Picture: pic}
	}

	if md.Artwork == nil && e.folderCover {
		if cover := FindFolderCover(filepath.Dir(path)); cover != "" {
			md.Artwork = &Artwork{Path: cover}
		}
	}
	return md, nil
}

func pictureFromComments(art map[string]string) (*Picture, error) {
	if v, ok := art["metadata_block_picture"]; ok {
		return DecodePictureComment(v)
	}
	for _, k := range []string{"coverart", "albumart", "picture"} {
		if v, ok := art[k]; ok {
			return DecodeCoverArt(v, "")
		}
	}
	return nil, nil
}

// FindFolderCover returns the first cover image in dir, matching names case-insensitively.
func FindFolderCover(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	names := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names[strings.ToLower(e.Name())] = e.Name()
		}
	}
	for _, want := range folderCovers {
		if name, ok := names[want]; ok {
			return filepath.Join(dir, name)
		}
	}
	return ""
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
