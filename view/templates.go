package view

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strconv"
)

var funcs = template.FuncMap{
	"add":      func(a, b int) int { return a + b },
	"sub":      func(a, b int) int { return a - b },
	"fraction": Fraction,
}

var templates = template.Must(template.New("larder").Funcs(funcs).Parse(`
{{define "recipe"}}<figure class="recipe__fig">
  <img src="{{.Image}}" alt="{{.Title}}" class="recipe__img" />
  <h1 class="recipe__title"><span>{{.Title}}</span></h1>
</figure>
<div class="recipe__details">
  <div class="recipe__info">
    <svg class="recipe__info-icon"><use href="{{.Icons}}#icon-clock"></use></svg>
    <span class="recipe__info-data recipe__info-data--minutes">{{.CookingTime}}</span>
    <span class="recipe__info-text">minutes</span>
  </div>
  <div class="recipe__info">
    <svg class="recipe__info-icon"><use href="{{.Icons}}#icon-users"></use></svg>
    <span class="recipe__info-data recipe__info-data--people">{{.Servings}}</span>
    <span class="recipe__info-text">servings</span>
    <div class="recipe__info-buttons">
      <button class="btn--tiny btn--update-servings" data-update-to="{{sub .Servings 1}}">
        <svg><use href="{{.Icons}}#icon-minus-circle"></use></svg>
      </button>
      <button class="btn--tiny btn--update-servings" data-update-to="{{add .Servings 1}}">
        <svg><use href="{{.Icons}}#icon-plus-circle"></use></svg>
      </button>
    </div>
  </div>
  <div class="recipe__user-generated{{if not .Key}} hidden{{end}}">
    <svg><use href="{{.Icons}}#icon-user"></use></svg>
  </div>
  <button class="btn--round btn--bookmark">
    <svg><use href="{{.Icons}}#icon-bookmark{{if .Bookmarked}}-fill{{end}}"></use></svg>
  </button>
</div>
<div class="recipe__ingredients">
  <h2 class="heading--2">Recipe ingredients</h2>
  <ul class="recipe__ingredient-list">
  {{- range .Ingredients}}
    <li class="recipe__ingredient">
      <svg class="recipe__icon"><use href="{{$.Icons}}#icon-check"></use></svg>
      <div class="recipe__quantity">{{fraction .Quantity}}</div>
      <div class="recipe__description"><span class="recipe__unit">{{.Unit}}</span> {{.Description}}</div>
    </li>
  {{- end}}
  </ul>
</div>
<div class="recipe__directions">
  <h2 class="heading--2">How to cook it</h2>
  <p class="recipe__directions-text">This recipe was carefully designed and tested by <span class="recipe__publisher">{{.Publisher}}</span>. Please check out directions at their website.</p>
  <a class="btn--small recipe__btn" href="{{.SourceURL}}" target="_blank">
    <span>Directions</span>
    <svg class="search__icon"><use href="{{.Icons}}#icon-arrow-right"></use></svg>
  </a>
</div>{{end}}

{{define "preview"}}<li class="preview">
  <a class="preview__link{{if .Active}} preview__link--active{{end}}" href="#{{.ID}}">
    <figure class="preview__fig"><img src="{{.Image}}" alt="{{.Title}}" /></figure>
    <div class="preview__data">
      <h4 class="preview__title">{{.Title}}</h4>
      <p class="preview__publisher">{{.Publisher}}</p>
      <div class="preview__user-generated{{if not .Key}} hidden{{end}}">
        <svg><use href="{{.Icons}}#icon-user"></use></svg>
      </div>
    </div>
  </a>
</li>{{end}}

{{define "previews"}}{{range .}}{{template "preview" .}}{{end}}{{end}}

{{define "pagination"}}
{{- if gt .Page 1}}<button data-goto="{{sub .Page 1}}" class="btn--inline pagination__btn--prev">
  <svg class="search__icon"><use href="{{.Icons}}#icon-arrow-left"></use></svg>
  <span>Page {{sub .Page 1}}</span>
</button>{{end}}
{{- if lt .Page .NumPages}}<button data-goto="{{add .Page 1}}" class="btn--inline pagination__btn--next">
  <span>Page {{add .Page 1}}</span>
  <svg class="search__icon"><use href="{{.Icons}}#icon-arrow-right"></use></svg>
</button>{{end}}
{{- end}}

{{define "upload"}}<div class="upload__column">
  <h3 class="upload__heading">Recipe data</h3>
  <label>Title</label><input required name="title" type="text" />
  <label>URL</label><input required name="sourceUrl" type="text" />
  <label>Image URL</label><input required name="image" type="text" />
  <label>Publisher</label><input required name="publisher" type="text" />
  <label>Prep time</label><input required name="cookingTime" type="number" />
  <label>Servings</label><input required name="servings" type="number" />
</div>
<div class="upload__column">
  <h3 class="upload__heading">Ingredients</h3>
  {{- range $i := .Slots}}
  <label>Ingredient {{$i}}</label>
  <input type="text" name="ingredient-{{$i}}" placeholder="Format: 'Quantity,Unit,Description'" />
  {{- end}}
</div>
<button class="btn upload__btn">
  <svg><use href="{{.Icons}}#icon-upload-cloud"></use></svg>
  <span>Upload</span>
</button>{{end}}
`))

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("view: template %s: %w", name, err)
	}
	return buf.String(), nil
}

// Fraction formats a quantity as a mixed fraction ("1 1/2"). Values with no
// small-denominator fraction fall back to two decimals. nil renders as "".
func Fraction(q *float64) string {
	if q == nil {
		return ""
	}
	v := *q
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	whole, frac := math.Modf(v)
	w := int64(whole)
	if frac < 1e-9 {
		return sign + strconv.FormatInt(w, 10)
	}
	for d := int64(2); d <= 16; d++ {
		n := int64(math.Round(frac * float64(d)))
		if math.Abs(float64(n)/float64(d)-frac) > 5e-3 {
			continue
		}
		switch {
		case n == 0:
			return sign + strconv.FormatInt(w, 10)
		case n == d:
			return sign + strconv.FormatInt(w+1, 10)
		case w == 0:
			return fmt.Sprintf("%s%d/%d", sign, n, d)
		}
		return fmt.Sprintf("%s%d %d/%d", sign, w, n, d)
	}
	return sign + strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
