// Package encoding autodetects the text encoding of DCF/DAT files and
// decodes them to UTF-8 on the fly. DHS exports are not consistently UTF-8 —
// older surveys carry windows-1252 or other legacy codepages — so every
// parser reads through a detected decoder rather than assuming UTF-8
package encoding

import (
	"bufio"
	"io"
	"os"
	"strings"

	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// sampleSize is how much of the file's head is sampled for detection
const sampleSize = 64 * 1024

var detector = chardet.NewTextDetector()

// Detect runs encoding autodetection over sample and resolves the result to
// a golang.org/x/text/encoding.Encoding via the WHATWG encoding index. An
// empty sample resolves to UTF-8; every other sample, all-ASCII included,
// takes the detector's best match
func Detect(sample []byte) (encoding.Encoding, string, error) {
	if len(sample) == 0 {
		return encodingUTF8(), "UTF-8", nil
	}
	result, err := detector.DetectBest(sample)
	if err != nil {
		return nil, "", perr.Wrapf(err, perr.ErrorCodeValidation, "encoding detection failed")
	}
	name := strings.ToLower(result.Charset)
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, "", perr.Wrapf(err, perr.ErrorCodeValidation, "unresolvable detected charset %q", result.Charset)
	}
	return enc, result.Charset, nil
}

// encodingUTF8 returns the identity/UTF-8 encoding from the htmlindex so the
// zero-sample path shares the same type as the detected path
func encodingUTF8() encoding.Encoding {
	enc, _ := htmlindex.Get("utf-8")
	return enc
}

// OpenDetected opens path, samples its head to detect the encoding, then
// returns a ReadCloser that decodes the full file (including the sampled
// prefix) to UTF-8. The detected charset name is returned for logging
func OpenDetected(path string) (io.ReadCloser, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", perr.Wrapf(err, perr.ErrorCodeDB, "open %s", path)
	}

	br := bufio.NewReaderSize(f, sampleSize)
	sample, _ := br.Peek(sampleSize)

	enc, charset, err := Detect(sample)
	if err != nil {
		_ = f.Close()
		return nil, "", perr.WithField(err, path)
	}

	dec := transform.NewReader(br, enc.NewDecoder())
	return &decodedFile{Reader: dec, f: f}, charset, nil
}

// decodedFile pairs a decoding transform.Reader with the *os.File it reads
// from so callers get a single Close
type decodedFile struct {
	io.Reader
	f *os.File
}

func (d *decodedFile) Close() error { return d.f.Close() }
