package model

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ErrIngredientFormat is returned when an ingredient field is not
// "quantity,unit,description". Its text is shown to the user as is.
var ErrIngredientFormat = errors.New("Wrong ingredient format! Please use the correct format :)")

// ErrUploadField is wrapped when a non-ingredient upload field is invalid.
var ErrUploadField = errors.New("model: invalid upload field")

// ingredientPrefix marks form fields holding one ingredient each.
const ingredientPrefix = "ingredient"

// ParseUpload normalises a submitted add-recipe form into a Recipe draft.
// Markup is stripped from every text field with policy. The draft has no ID;
// the backend assigns one.
func ParseUpload(form map[string]string, policy *bluemonday.Policy) (*Recipe, error) {
	if policy == nil {
		policy = bluemonday.StrictPolicy()
	}
	// Sanitize entity-encodes what it keeps; the templates escape again on output.
	clean := func(s string) string { return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s))) }

	ings, err := parseIngredients(form, clean)
	if err != nil {
		return nil, err
	}

	r := &Recipe{
		Title:       clean(form["title"]),
		Publisher:   clean(form["publisher"]),
		Ingredients: ings,
	}
	if r.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrUploadField)
	}
	if r.SourceURL, err = httpURL("sourceUrl", form["sourceUrl"]); err != nil {
		return nil, err
	}
	if r.Image, err = httpURL("image", form["image"]); err != nil {
		return nil, err
	}
	if r.CookingTime, err = positiveInt("cookingTime", form["cookingTime"]); err != nil {
		return nil, err
	}
	if r.Servings, err = positiveInt("servings", form["servings"]); err != nil {
		return nil, err
	}
	return r, nil
}

// parseIngredients reads the non-empty ingredient-N fields in N order.
func parseIngredients(form map[string]string, clean func(string) string) ([]Ingredient, error) {
	type field struct {
		n   int
		key string
	}
	var fields []field
	for k, v := range form {
		if !strings.HasPrefix(k, ingredientPrefix) || strings.TrimSpace(v) == "" {
			continue
		}
		n, _ := strconv.Atoi(strings.TrimLeft(strings.TrimPrefix(k, ingredientPrefix), "-_"))
		fields = append(fields, field{n: n, key: k})
	}
	sort.Slice(fields, func(i, j int) bool {
		if fields[i].n != fields[j].n {
			return fields[i].n < fields[j].n
		}
		return fields[i].key < fields[j].key
	})

	out := make([]Ingredient, 0, len(fields))
	for _, f := range fields {
		parts := strings.Split(form[f.key], ",")
		if len(parts) != 3 {
			return nil, ErrIngredientFormat
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		ing := Ingredient{Unit: clean(parts[1]), Description: clean(parts[2])}
		if parts[0] != "" {
			q, err := strconv.ParseFloat(parts[0], 64)
			if err != nil || q < 0 {
				return nil, ErrIngredientFormat
			}
			ing.Quantity = &q
		}
		out = append(out, ing)
	}
	return out, nil
}

func httpURL(name, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %s must be an http(s) URL", ErrUploadField, name)
	}
	return u.String(), nil
}

func positiveInt(name, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number", ErrUploadField, name)
	}
	return n, nil
}
