// Package predictor implements the horizontal differencing predictors
// applied to channel data before deflate compression.
//
// Integer channels use plain horizontal differencing on sample values.
// 32-bit float channels use the TIFF floating-point predictor: sample
// bytes are split into per-significance planes within each row, then
// byte-wise differenced. Both operate row by row, matching how Photoshop
// writes predicted channel data. Samples are big-endian.
package predictor

// DeltaEncode applies horizontal differencing in place, row by row.
// The data length must be a multiple of cols*sampleSize; sampleSize is
// 1 or 2 bytes per sample, big-endian.
func DeltaEncode(data []byte, cols, sampleSize int) {
	rowBytes := cols * sampleSize
	if rowBytes == 0 {
		return
	}
	switch sampleSize {
	case 1:
		for off := 0; off+rowBytes <= len(data); off += rowBytes {
			row := data[off : off+rowBytes]
			for i := len(row) - 1; i >= 1; i-- {
				row[i] -= row[i-1]
			}
		}
	case 2:
		for off := 0; off+rowBytes <= len(data); off += rowBytes {
			row := data[off : off+rowBytes]
			for i := rowBytes - 2; i >= 2; i -= 2 {
				prev := uint16(row[i-2])<<8 | uint16(row[i-1])
				cur := uint16(row[i])<<8 | uint16(row[i+1])
				d := cur - prev
				row[i] = byte(d >> 8)
				row[i+1] = byte(d)
			}
		}
	}
}

// DeltaDecode reverses horizontal differencing in place, row by row.
func DeltaDecode(data []byte, cols, sampleSize int) {
	rowBytes := cols * sampleSize
	if rowBytes == 0 {
		return
	}
	switch sampleSize {
	case 1:
		for off := 0; off+rowBytes <= len(data); off += rowBytes {
			row := data[off : off+rowBytes]
			for i := 1; i < len(row); i++ {
				row[i] += row[i-1]
			}
		}
	case 2:
		for off := 0; off+rowBytes <= len(data); off += rowBytes {
			row := data[off : off+rowBytes]
			for i := 2; i+1 < rowBytes; i += 2 {
				prev := uint16(row[i-2])<<8 | uint16(row[i-1])
				cur := uint16(row[i])<<8 | uint16(row[i+1])
				s := cur + prev
				row[i] = byte(s >> 8)
				row[i+1] = byte(s)
			}
		}
	}
}

// FloatEncode applies the floating-point predictor in place, row by row.
// Each row of cols big-endian float32 samples is rearranged into four
// byte-significance planes and then byte-wise differenced.
func FloatEncode(data []byte, cols int) {
	rowBytes := cols * 4
	if rowBytes == 0 {
		return
	}
	tmp := make([]byte, rowBytes)
	for off := 0; off+rowBytes <= len(data); off += rowBytes {
		row := data[off : off+rowBytes]
		// Split into byte planes: all first bytes, all second bytes, ...
		for i := 0; i < cols; i++ {
			tmp[i] = row[i*4]
			tmp[cols+i] = row[i*4+1]
			tmp[2*cols+i] = row[i*4+2]
			tmp[3*cols+i] = row[i*4+3]
		}
		// Byte-wise horizontal differencing across the planar row.
		for i := rowBytes - 1; i >= 1; i-- {
			tmp[i] -= tmp[i-1]
		}
		copy(row, tmp)
	}
}

// FloatDecode reverses the floating-point predictor in place, row by row.
func FloatDecode(data []byte, cols int) {
	rowBytes := cols * 4
	if rowBytes == 0 {
		return
	}
	tmp := make([]byte, rowBytes)
	for off := 0; off+rowBytes <= len(data); off += rowBytes {
		row := data[off : off+rowBytes]
		for i := 1; i < rowBytes; i++ {
			row[i] += row[i-1]
		}
		for i := 0; i < cols; i++ {
			tmp[i*4] = row[i]
			tmp[i*4+1] = row[cols+i]
			tmp[i*4+2] = row[2*cols+i]
			tmp[i*4+3] = row[3*cols+i]
		}
		copy(row, tmp)
	}
}
