package converter

import (
	"bytes"
	"image"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"squish/pkg/imgutil"
)

// Report describes an input file without converting it: validation
// verdict, detected kind, pixel dimensions, and the metadata categories
// a WebP re-encode would drop.
type Report struct {
	Name        string
	ContentType string
	Size        int64
	Kind        imgutil.Kind
	Width       int
	Height      int
	Metadata    []string
	Validation  error
}

// OutputName is the filename a conversion of this file would produce.
func (r *Report) OutputName() string {
	return imgutil.DeriveOutputName(r.Name)
}

// Inspect builds a Report for f. The returned error covers only read
// failures; a file that fails validation still yields a report with
// Validation set.
func Inspect(f File) (*Report, error) {
	if f == nil {
		return nil, imgutil.Validate(nil)
	}

	report := &Report{
		Name:        f.Name(),
		ContentType: f.ContentType(),
		Size:        f.Size(),
		Validation:  imgutil.Validate(f),
	}

	data, err := f.Bytes()
	if err != nil {
		return nil, err
	}

	kind, err := imgutil.DetectHeader(data)
	if err == nil {
		report.Kind = kind
	}

	// SVG has no fixed pixel size; DecodeConfig covers the raster kinds.
	if report.Kind != imgutil.KindSVG {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			report.Width = cfg.Width
			report.Height = cfg.Height
		}
	}

	report.Metadata = metadataCategories(data)
	return report, nil
}

// metadataCategories summarizes embedded EXIF worth telling the user
// about, since encoding to WebP discards it.
func metadataCategories(data []byte) []string {
	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(bytes.NewReader(data), nil, true)
	if err != nil {
		return nil
	}

	var hasGPS, hasModel, hasTimestamp bool
	for _, tag := range tags {
		name := tag.TagName
		if strings.HasPrefix(name, "GPS") || strings.Contains(tag.IfdPath, "GPS") {
			hasGPS = true
		}
		if name == "Model" || name == "CameraModelName" {
			hasModel = true
		}
		if name == "DateTimeOriginal" || name == "DateTimeDigitized" || name == "DateTime" {
			hasTimestamp = true
		}
	}

	cats := []string{}
	if hasGPS {
		cats = append(cats, "GPS")
	}
	if hasModel {
		cats = append(cats, "Device Model")
	}
	if hasTimestamp {
		cats = append(cats, "Timestamp")
	}
	return cats
}
