package colour

// lightThreshold is the perceptual luminance above which dark text reads better.
const lightThreshold = 150

// PerceptualLuminance returns the Rec. 709 weighted sum of the raw 0-255
// channels. The result is in [0, 255].
func PerceptualLuminance(c RGB) float64 {
	return 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
}

// IsLight reports whether c is bright enough to need dark text on top of it.
func IsLight(c RGB) bool {
	return PerceptualLuminance(c) > lightThreshold
}
