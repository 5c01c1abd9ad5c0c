package stream

import (
	"bytes"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
)

type codec int

const (
	codecUnknown codec = iota
	codecMP3
	codecFLAC
	codecWAV
)

func (c codec) String() string {
	switch c {
	case codecMP3:
		return "mp3"
	case codecFLAC:
		return "flac"
	case codecWAV:
		return "wav"
	default:
		return "unknown"
	}
}

// sniff identifies the codec from the leading bytes, falling back to the URI extension.
func sniff(data []byte, uri string) codec {
	body := data
	if n := id3v2Size(body); n > 0 && n < len(body) {
		body = body[n:]
	}

	switch {
	case bytes.HasPrefix(body, []byte("fLaC")):
		return codecFLAC
	case len(body) >= 12 && string(body[0:4]) == "RIFF" && string(body[8:12]) == "WAVE":
		return codecWAV
	case bytes.HasPrefix(data, []byte("ID3")):
		return codecMP3
	case len(body) >= 2 && body[0] == 0xff && body[1]&0xe0 == 0xe0:
		return codecMP3
	}

	if u, err := url.Parse(uri); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".mp3":
			return codecMP3
		case ".flac", ".fla":
			return codecFLAC
		case ".wav":
			return codecWAV
		}
	}
	return codecUnknown
}

// id3v2Size returns the length of a leading ID3v2 tag, or 0.
func id3v2Size(data []byte) int {
	if len(data) < 10 || string(data[0:3]) != "ID3" {
		return 0
	}
	size := int(data[6]&0x7f)<<21 | int(data[7]&0x7f)<<14 | int(data[8]&0x7f)<<7 | int(data[9]&0x7f)
	size += 10
	if data[5]&0x10 != 0 {
		size += 10
	}
	return size
}

// decode opens data as a seekable stream.
func decode(data []byte, uri string) (beep.StreamSeekCloser, beep.Format, codec, error) {
	c := sniff(data, uri)

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch c {
	case codecMP3:
		streamer, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	case codecFLAC:
		// Skip ID3v2 tag if present (some taggers add it to FLAC files)
		skip := id3v2Size(data)
		if skip >= len(data) {
			skip = 0
		}
		streamer, format, err = flac.Decode(bytes.NewReader(data[skip:]))
	case codecWAV:
		streamer, format, err = wav.Decode(bytes.NewReader(data))
	default:
		return nil, beep.Format{}, c, domain.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, beep.Format{}, c, err
	}
	return streamer, format, c, nil
}
