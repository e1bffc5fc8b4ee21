package document

// RequiredSections are the top-level sections every site document carries.
var RequiredSections = []string{"hero", "about", "services", "contact", "menu"}

// Validate reports content problems as human readable messages. A nil
// result means the document is publishable. Validate does not enforce a
// schema: unknown sections and extra fields are fine.
func Validate(root Value) []string {
	var problems []string
	if root.kind != KindObject {
		return []string{"document root must be an object"}
	}

	for _, section := range RequiredSections {
		if v, ok := root.Field(section); !ok || !truthy(v) {
			problems = append(problems, "Missing required section: "+section)
		}
	}

	if hero, ok := root.Field("hero"); ok && truthy(hero) {
		for _, name := range []string{"title", "description", "cta"} {
			v, _ := hero.Field(name)
			problems = append(problems, checkBilingual(v, "hero."+name)...)
		}
	}

	if contact, ok := root.Field("contact"); ok && truthy(contact) {
		if v, _ := Lookup(contact, MustParsePath("phone.value")); !truthy(v) {
			problems = append(problems, "Missing phone number in contact section")
		}
		if v, _ := Lookup(contact, MustParsePath("email.value")); !truthy(v) {
			problems = append(problems, "Missing email in contact section")
		}
	}
	return problems
}

// checkBilingual flags an object that has one language filled in but not
// the other. Objects with neither are not treated as bilingual.
func checkBilingual(v Value, path string) []string {
	if v.kind != KindObject {
		return nil
	}
	ar, _ := v.Field("ar")
	en, _ := v.Field("en")
	if !truthy(ar) && !truthy(en) {
		return nil
	}
	var out []string
	if !truthy(ar) {
		out = append(out, "Missing Arabic text at "+path)
	}
	if !truthy(en) {
		out = append(out, "Missing English text at "+path)
	}
	return out
}
