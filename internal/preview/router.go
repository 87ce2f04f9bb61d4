package preview

import "git.home.luguber.info/inful/specpreview/internal/editor"

// AnnotationRouter replaces the editor annotations with those of a classification.
type AnnotationRouter struct {
	Editor editor.Editor
}

// Apply clears every annotation, then applies c. Prior annotations never
// survive a dispatch, whatever the status.
func (r AnnotationRouter) Apply(c Classification) {
	r.Editor.ClearAnnotation()
	if c.YAML != nil {
		r.Editor.AnnotateYAMLErrors(*c.YAML)
	}
	for _, d := range c.Errors {
		r.Editor.AnnotateSwaggerError(d, editor.KindError)
	}
	for _, d := range c.Warnings {
		r.Editor.AnnotateSwaggerError(d, editor.KindWarning)
	}
	if cm, ok := r.Editor.(editor.Committer); ok {
		cm.Commit()
	}
}
