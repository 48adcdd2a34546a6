// Package media turns images and text into pixel buffers the protocol
// layer can frame. Images decode from the common formats, scale through
// golang.org/x/image, and convert to the panel's RGB layout. Text
// renders in a 5x7 dot-matrix face in the style of highway signage.
package media
