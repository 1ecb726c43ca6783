package transform

import "encoding/binary"

// maximum distance into the file to look for EXIF tags
const maxExifScan = 1 << 20

// readOrientation extracts the EXIF orientation tag (1-8) from JPEG or
// TIFF bytes. It returns 1 (upright) when the image carries no tag or the
// metadata cannot be parsed; orientation is a hint, never an error.
func readOrientation(data []byte) int {
	if len(data) > maxExifScan {
		data = data[:maxExifScan]
	}
	if len(data) < 4 {
		return 1
	}

	// Bare TIFF container.
	if (data[0] == 'I' && data[1] == 'I') || (data[0] == 'M' && data[1] == 'M') {
		return tiffOrientation(data)
	}

	// JPEG: walk segments looking for the APP1 Exif block.
	if data[0] != 0xFF || data[1] != 0xD8 {
		return 1
	}
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return 1
		}
		marker := data[i+1]
		switch {
		case marker == 0xFF:
			i++
			continue
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD9):
			// Standalone markers carry no length.
			i += 2
			continue
		case marker == 0xDA:
			// Start of scan; EXIF always precedes it.
			return 1
		}

		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if segLen < 2 || i+2+segLen > len(data) {
			return 1
		}
		if marker == 0xE1 {
			seg := data[i+4 : i+2+segLen]
			if len(seg) > 6 && string(seg[:6]) == "Exif\x00\x00" {
				return tiffOrientation(seg[6:])
			}
		}
		i += 2 + segLen
	}
	return 1
}

// tiffOrientation reads the orientation entry out of a TIFF header's
// first IFD.
func tiffOrientation(tiff []byte) int {
	if len(tiff) < 8 {
		return 1
	}
	var bo binary.ByteOrder
	switch {
	case tiff[0] == 'I' && tiff[1] == 'I':
		bo = binary.LittleEndian
	case tiff[0] == 'M' && tiff[1] == 'M':
		bo = binary.BigEndian
	default:
		return 1
	}
	if bo.Uint16(tiff[2:4]) != 42 {
		return 1
	}

	off := int(bo.Uint32(tiff[4:8]))
	if off < 0 || off+2 > len(tiff) {
		return 1
	}
	count := int(bo.Uint16(tiff[off : off+2]))
	off += 2

	for j := 0; j < count; j++ {
		entry := off + j*12
		if entry+12 > len(tiff) {
			return 1
		}
		if bo.Uint16(tiff[entry:entry+2]) != 0x0112 {
			continue
		}
		v := int(bo.Uint16(tiff[entry+8 : entry+10]))
		if v >= 1 && v <= 8 {
			return v
		}
		return 1
	}
	return 1
}
