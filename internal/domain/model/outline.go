package model

// TreeViewBox is the logical viewport the tree outline is drawn in.
const TreeViewBox = "0 0 256 291"

// treeOutline traces the tree silhouette starting at the tip, down the
// left-hand side, along the trunk base and back up the right-hand side.
var treeOutline = Path{ //nolint:gochecknoglobals // fixed reference shape
	{130, 0},
	{120, 16},
	{110, 32},
	{100, 48},
	{90, 64},
	{80, 80},
	{70, 96},
	{60, 112},
	{50, 128},
	{40, 144},
	{30, 160}, // upper tier corner
	{40, 160},
	{50, 160},
	{60, 160},
	{70, 160},
	{70, 160},
	{63, 173},
	{56, 186},
	{49, 199},
	{42, 212},
	{35, 225},
	{28, 238},
	{21, 251},
	{14, 264},
	{7, 277},
	{0, 290}, // base
	{25, 290},
	{50, 290},
	{75, 290},
	{100, 290},
	{125, 290},
	{150, 290},
	{175, 290},
	{200, 290},
	{225, 290},
	{250, 290},
	{243, 277},
	{236, 264},
	{229, 251},
	{222, 238},
	{215, 225},
	{208, 212},
	{201, 199},
	{194, 186},
	{187, 173},
	{180, 160}, // upper tier corner
	{190, 160},
	{200, 160},
	{210, 160},
	{220, 160},
	{211, 144},
	{202, 128},
	{193, 112},
	{184, 96},
	{175, 80},
	{166, 64},
	{157, 48},
	{148, 32},
	{139, 16},
	{130, 0},
}

// ReferenceOutline is the fixed target shape a player traces.
type ReferenceOutline struct {
	points Path
}

// TreeOutline returns the tree reference outline. The returned value shares
// its backing points; Points hands out copies so the shape cannot be mutated.
func TreeOutline() ReferenceOutline {
	return ReferenceOutline{points: treeOutline}
}

// NewReferenceOutline builds an outline from pts. It returns ErrEmptyOutline
// when pts is empty, since scoring divides by the outline length.
func NewReferenceOutline(pts Path) (ReferenceOutline, error) {
	if len(pts) == 0 {
		return ReferenceOutline{}, ErrEmptyOutline
	}
	return ReferenceOutline{points: pts.Clone()}, nil
}

// Points returns a copy of the outline points.
func (r ReferenceOutline) Points() Path { return r.points.Clone() }

// Len returns the number of outline points.
func (r ReferenceOutline) Len() int { return len(r.points) }

// At returns the i-th outline point.
func (r ReferenceOutline) At(i int) Point { return r.points[i] }
