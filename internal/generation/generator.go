// Package generation defines the boundary to the content generation
// collaborator and the text preparation that feeds it. The collaborator turns
// a law's cleaned text into a summary, an illustration and a caption; its
// internals live behind the Generator interface.
package generation

import (
	"context"
	"strings"
	"time"
)

// Input is the prepared material handed to the generator for one law.
type Input struct {
	// Title of the legal text.
	Title string
	// PublicationDate of the text in the official journal, nil when unknown.
	PublicationDate *time.Time
	// Signatories is the cleaned signatory block.
	Signatories string
	// Content is the cleaned full text of the law.
	Content string
}

// Output is the generated material for one post.
type Output struct {
	// Summary is the plain-language summary of the law.
	Summary string
	// ImageURL is a publicly reachable URL of the generated illustration.
	ImageURL string
	// ImageDescription describes the illustration, used as alt text.
	ImageDescription string
	// Caption is the ready-to-publish post caption.
	Caption string
}

// Generator produces post material from a prepared law. Implementations must
// return a Generation-kind error when no usable image URL or caption could be
// produced; callers treat the Output as complete on success.
type Generator interface {
	SummarizeAndIllustrate(ctx context.Context, input Input) (*Output, error)
}

// Usable reports whether the output carries the two fields publishing cannot
// proceed without.
func (o *Output) Usable() bool {
	return strings.TrimSpace(o.ImageURL) != "" && strings.TrimSpace(o.Caption) != ""
}
