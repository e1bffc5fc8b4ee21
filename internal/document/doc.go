// Package document models the site content document and the path-addressed
// edits the admin panel applies to it.
//
// A [Value] is a tagged variant over the JSON kinds (null, bool, number,
// string, array, object). The root of a content document is an object whose
// top-level keys are site sections ("hero", "about", "contact", ...). No
// schema is enforced here; shape checks live in [Validate] and at the HTTP
// boundary.
//
// Edits are addressed by dotted/bracketed paths such as
// "footer.sections[0].title.en". [Set] applies one write and returns a new
// root, cloning only the containers along the path so that untouched
// branches stay shared with the input:
//
//	doc, err := document.Set(doc, "hero.title.ar", document.String("..."))
//
// [Classify] maps a (field name, value) pair onto the editing affordance the
// admin UI should render for it.
package document
