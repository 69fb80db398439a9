package encoder

import (
	"slices"
	"strconv"

	"github.com/desertthunder/mp3cator/internal/models"
)

// ArgsInput describes one ffmpeg invocation.
type ArgsInput struct {
	Source       string
	Output       string
	Bitrate      string      // e.g. "320k"
	Tags         models.Tags // Destination tags; nil writes none
	ArtStream    int         // Source stream index of an attached picture, or -1
	ArtImagePath string      // Separate image input, used when ArtStream is -1
}

// BuildArgs returns ffmpeg arguments for a constant-bitrate MP3 encode.
//
// Source metadata is dropped (-map_metadata -1) and replaced by the mapped tags so that only the renamed keys reach the ID3 header.
func BuildArgs(in ArgsInput) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error", "-i", in.Source}

	hasImageInput := in.ArtStream < 0 && in.ArtImagePath != ""
	if hasImageInput {
		args = append(args, "-i", in.ArtImagePath)
	}

	args = append(args, "-map", "0:a:0")
	switch {
	case in.ArtStream >= 0:
		args = append(args, "-map", "0:"+strconv.Itoa(in.ArtStream), "-c:v", "copy", "-disposition:v", "attached_pic")
	case hasImageInput:
		args = append(args, "-map", "1:v:0", "-c:v", "copy", "-disposition:v", "attached_pic")
	}

	args = append(args,
		"-c:a", "libmp3lame",
		"-b:a", in.Bitrate,
		"-minrate", in.Bitrate,
		"-maxrate", in.Bitrate,
		"-map_metadata", "-1",
	)

	keys := make([]string, 0, len(in.Tags))
	for k := range in.Tags {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		args = append(args, "-metadata", k+"="+in.Tags[k])
	}
	if in.ArtStream >= 0 || hasImageInput {
		args = append(args, "-metadata:s:v", "title=Album cover", "-metadata:s:v", "comment=Cover (front)")
	}

	args = append(args, "-id3v2_version", "3", "-write_id3v1", "1", "-f", "mp3", in.Output)
	return args
}
