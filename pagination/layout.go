package pagination

import "fmt"

// Layout describes page geometry in CSS pixels at 96 dpi.
type Layout struct {
	PageWidth  float64
	PageHeight float64
	Padding    float64
}

// A4 is shared by the preview and the PDF export so both paginate identically.
var A4 = Layout{
	PageWidth:  794,
	PageHeight: 1123,
	Padding:    40,
}

// UsableHeight is the page height minus top and bottom padding.
func (l Layout) UsableHeight() float64 {
	return l.PageHeight - 2*l.Padding
}

// ContentWidth is the page width minus left and right padding.
func (l Layout) ContentWidth() float64 {
	return l.PageWidth - 2*l.Padding
}

// Validate reports geometry that cannot hold any content.
func (l Layout) Validate() error {
	if l.PageWidth <= 0 || l.PageHeight <= 0 {
		return fmt.Errorf("page size must be positive, got %gx%g", l.PageWidth, l.PageHeight)
	}
	if l.Padding < 0 {
		return fmt.Errorf("page padding must not be negative, got %g", l.Padding)
	}
	if l.UsableHeight() <= 0 || l.ContentWidth() <= 0 {
		return fmt.Errorf("page padding %g leaves no usable area", l.Padding)
	}
	return nil
}
