package document

import (
	"strconv"
	"strings"
	"unicode"
)

// ImageField is an image reference found in a document.
type ImageField struct {
	Path  string `json:"path"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// ImageFields lists every string stored under an image-named field,
// including the string elements of image-named arrays, in key order.
func ImageFields(root Value) []ImageField {
	var out []ImageField
	walkImages(root, "", &out)
	return out
}

func walkImages(node Value, prefix string, out *[]ImageField) {
	if node.kind == KindArray {
		// arrays are only descended into through a named field
		return
	}
	for _, key := range node.Keys() {
		v := node.obj[key]
		path := joinPath(prefix, key)

		if IsImageName(key) {
			switch v.kind {
			case KindString:
				*out = append(*out, ImageField{Path: path, Label: fieldLabel(path), Value: v.s})
			case KindArray:
				base := strings.ReplaceAll(path, ".", " > ")
				for i, item := range v.arr {
					if item.kind != KindString {
						continue
					}
					*out = append(*out, ImageField{
						Path:  path + "[" + strconv.Itoa(i) + "]",
						Label: base + " " + strconv.Itoa(i+1),
						Value: item.s,
					})
				}
			}
			continue
		}

		switch v.kind {
		case KindArray:
			for i, item := range v.arr {
				if item.kind == KindObject {
					walkImages(item, path+"["+strconv.Itoa(i)+"]", out)
				}
			}
		case KindObject:
			walkImages(v, path, out)
		}
	}
}

// fieldLabel turns "hero.backgroundImage" into "hero > background Image".
func fieldLabel(path string) string {
	var b strings.Builder
	for _, r := range strings.ReplaceAll(path, ".", " > ") {
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// Preview summarises a document for the admin dashboard.
type Preview struct {
	TotalSections       int `json:"totalSections"`
	TotalTextFields     int `json:"totalTextFields"`
	TotalImageFields    int `json:"totalImageFields"`
	MissingTranslations int `json:"missingTranslations"`
}

// Stats counts sections, bilingual text fields, image references and
// bilingual fields with an empty language.
func Stats(root Value) Preview {
	p := Preview{TotalSections: root.Len()}
	if root.kind != KindObject {
		p.TotalSections = 0
	}
	countFields(root, &p)
	return p
}

func countFields(node Value, p *Preview) {
	if node.kind != KindObject {
		return
	}
	for _, key := range node.Keys() {
		v := node.obj[key]
		if IsImageName(key) {
			switch v.kind {
			case KindString:
				p.TotalImageFields++
			case KindArray:
				p.TotalImageFields += len(v.arr)
			}
			continue
		}
		if ar, en, ok := translations(v); ok {
			p.TotalTextFields++
			if !truthy(ar) || !truthy(en) {
				p.MissingTranslations++
			}
			continue
		}
		switch v.kind {
		case KindArray:
			for _, item := range v.arr {
				countFields(item, p)
			}
		case KindObject:
			countFields(v, p)
		}
	}
}

// translations returns the ar and en fields of an object that has both,
// whatever their type.
func translations(v Value) (ar, en Value, ok bool) {
	if v.kind != KindObject {
		return Value{}, Value{}, false
	}
	ar, okAr := v.obj["ar"]
	en, okEn := v.obj["en"]
	return ar, en, okAr && okEn
}
