package visibility

import "typehide/internal/typespan"

// Editor is the surface that renders a document. The coordinator drives it;
// it never calls back into the coordinator.
type Editor interface {
	SetDecorations(uri string, decorations []Decoration)
	ClearDecorations(uri string)
	Fold(uri string, r LineRange)
	Unfold(uri string, r LineRange)
}

// ModeStore persists the hidden mode and the ignored kinds across runs.
type ModeStore interface {
	LoadHidden() (hidden bool, ok bool, err error)
	SaveHidden(hidden bool) error
	LoadIgnored() ([]typespan.Kind, error)
	SaveIgnored(kinds []typespan.Kind) error
}
