package imgutil

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count with base-1024 units, two decimals at
// most, trailing zeros trimmed: 1536 -> "1.5 KB", 1048576 -> "1 MB".
func FormatSize(bytes int64) string {
	return FormatSizeDecimals(bytes, 2)
}

// FormatSizeDecimals is FormatSize with an explicit decimal count.
func FormatSizeDecimals(bytes int64, decimals int) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	if decimals < 0 {
		decimals = 0
	}

	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i < 0 {
		i = 0
	}
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}

	value := float64(bytes) / math.Pow(1024, float64(i))
	scale := math.Pow(10, float64(decimals))
	value = math.Round(value*scale) / scale

	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[i]
}

// ReductionPercent renders the signed byte-size change from original to
// converted with one decimal place: shrinking yields a leading "-",
// growth a leading "+".
func ReductionPercent(originalBytes, newBytes int64) string {
	if originalBytes == 0 {
		return "+0.0%"
	}
	change := float64(newBytes-originalBytes) / float64(originalBytes) * 100
	return fmt.Sprintf("%+.1f%%", change)
}

// DeriveOutputName maps an input filename to its WebP counterpart by
// replacing the extension. A name with no extension keeps its whole stem:
// "photo.png" -> "photo.webp", "README" -> "README.webp".
func DeriveOutputName(originalName string) string {
	stem := originalName
	if i := strings.LastIndex(originalName, "."); i > 0 {
		stem = originalName[:i]
	}
	return stem + ".webp"
}

// ExtensionOf returns the uppercase text after the last dot in name, or
// "" when name has no extension.
func ExtensionOf(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToUpper(name[i+1:])
}
