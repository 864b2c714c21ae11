// internal/types/plan.go
package types

// --------------------------------------------
// Caption animations
// --------------------------------------------
type CaptionAnimation string

const (
	CaptionFade    CaptionAnimation = "FADE"
	CaptionPop     CaptionAnimation = "POP"
	CaptionSlideUp CaptionAnimation = "SLIDE_UP"
	CaptionNone    CaptionAnimation = "NONE"
)

// Valid reports whether a is one of the known caption animations.
func (a CaptionAnimation) Valid() bool {
	switch a {
	case CaptionFade, CaptionPop, CaptionSlideUp, CaptionNone:
		return true
	}
	return false
}

// --------------------------------------------
// Video animations
// --------------------------------------------
type VideoAnimation string

const (
	VideoNone      VideoAnimation = "NONE"
	VideoZoomIn    VideoAnimation = "ZOOM_IN"
	VideoZoomOut   VideoAnimation = "ZOOM_OUT"
	VideoSlideUp   VideoAnimation = "SLIDE_UP"
	VideoSlideLeft VideoAnimation = "SLIDE_LEFT"
	VideoFadeIn    VideoAnimation = "FADE_IN"
)

func (a VideoAnimation) Valid() bool {
	switch a {
	case VideoNone, VideoZoomIn, VideoZoomOut, VideoSlideUp, VideoSlideLeft, VideoFadeIn:
		return true
	}
	return false
}

// --------------------------------------------
// Annotated segment (one caption in the plan)
// --------------------------------------------
type AnnotatedSegment struct {
	Segment
	Highlight        []string         `json:"highlight"`
	CaptionAnimation CaptionAnimation `json:"captionAnimation"`
	VideoAnimation   VideoAnimation   `json:"videoAnimation"`
	IsTitle          bool             `json:"isTitle"`
	IsSceneChange    bool             `json:"isSceneChange,omitempty"`
	SectionTitle     string           `json:"sectionTitle,omitempty"`

	// Style overrides; only ever set by an edit pass.
	SectionTitleSize int    `json:"sectionTitleSize,omitempty"`
	CaptionColor     string `json:"captionColor,omitempty"`
	CaptionSize      int    `json:"captionSize,omitempty"`
	HighlightColor   string `json:"highlightColor,omitempty"`
}

// --------------------------------------------
// Edit plan and the persisted project payload
// --------------------------------------------
type EditPlan struct {
	Segments []AnnotatedSegment `json:"segments"`
}

// Project is the payload handed to the renderer and re-read by edit passes.
type Project struct {
	Video    string   `json:"video"`
	Audio    string   `json:"audio"`
	Metadata Metadata `json:"metadata"`
	EditPlan EditPlan `json:"editPlan"`
}
