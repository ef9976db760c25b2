// Package brief composes the shareable prefill link, the brief and final
// evaluation summaries, and the mailto links that carry them.
package brief

import (
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roi-cli/internal/model"
)

var fieldByKey = func() map[string]model.Field {
	m := make(map[string]model.Field, len(model.PrefillFields))
	for _, f := range model.PrefillFields {
		m[f.Key] = f.Field
	}
	return m
}()

// Encode returns the query parameters for the non-empty brief fields of
// form. requester, when set, replaces the form's requester field.
func Encode(form model.Form, requester string) url.Values {
	params := url.Values{}
	for _, m := range model.PrefillFields {
		if m.Field == model.FieldRequester {
			continue
		}
		if v := form[m.Field]; v != "" {
			params.Set(m.Key, v)
		}
	}
	if requester == "" {
		requester = form[model.FieldRequester]
	}
	if requester != "" {
		params.Set(keyOf(model.FieldRequester), requester)
	}
	return params
}

// Decode returns the recognized brief fields present in params. A key
// present with an empty value yields an empty field; unknown keys are
// ignored.
func Decode(params url.Values) model.Form {
	form := make(model.Form)
	for key, values := range params {
		field, ok := fieldByKey[key]
		if !ok || len(values) == 0 {
			continue
		}
		form[field] = values[0]
	}
	return form
}

// PrefillURL returns base with its query and fragment replaced by the
// encoded brief fields.
func PrefillURL(base string, form model.Form, requester string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", eris.Wrapf(err, "brief: parse base url %q", base)
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.RawQuery = Encode(form, requester).Encode()
	return u.String(), nil
}

// DecodeURL parses raw and returns the brief fields in its query string.
func DecodeURL(raw string) (model.Form, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "brief: parse url %q", raw)
	}
	params, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, eris.Wrap(err, "brief: parse query")
	}
	return Decode(params), nil
}

func keyOf(field model.Field) string {
	for _, m := range model.PrefillFields {
		if m.Field == field {
			return m.Key
		}
	}
	return ""
}
