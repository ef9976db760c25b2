package main

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/roi-cli/internal/model"
)

// briefFile is the YAML layout accepted by --file. Scores and efforts
// stay strings so they are parsed exactly as form inputs are.
type briefFile struct {
	Title       string            `yaml:"title"`
	Owner       string            `yaml:"owner"`
	Date        string            `yaml:"date"`
	Status      string            `yaml:"status"`
	Description string            `yaml:"description"`
	Requester   string            `yaml:"requester"`
	Scores      map[string]string `yaml:"scores"`
	Reasons     map[string]string `yaml:"reasons"`
	Efforts     map[string]string `yaml:"efforts"`
}

// loadBriefFile reads a brief YAML file into a form.
func loadBriefFile(path string) (model.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read brief file %s", path)
	}
	var bf briefFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, eris.Wrapf(err, "parse brief file %s", path)
	}
	return bf.form()
}

func (bf briefFile) form() (model.Form, error) {
	form := model.Form{}
	set := func(f model.Field, v string) {
		if v != "" {
			form[f] = v
		}
	}
	set(model.FieldTitle, bf.Title)
	set(model.FieldOwner, bf.Owner)
	set(model.FieldDate, bf.Date)
	set(model.FieldStatus, bf.Status)
	set(model.FieldDescription, bf.Description)
	set(model.FieldRequester, bf.Requester)

	if err := applyScores(form, bf.Scores); err != nil {
		return nil, err
	}
	for key, v := range bf.Reasons {
		c, ok := model.ParseCriterion(key)
		if !ok {
			return nil, eris.Errorf("unknown criterion %q in reasons", key)
		}
		set(model.ReasonField(c), v)
	}
	if err := applyEfforts(form, bf.Efforts); err != nil {
		return nil, err
	}
	return form, nil
}

// applyScores sets criterion scores keyed by criterion name.
func applyScores(form model.Form, scores map[string]string) error {
	for key, v := range scores {
		c, ok := model.ParseCriterion(strings.TrimSpace(key))
		if !ok {
			return eris.Errorf("unknown criterion %q (want one of %s)", key, criterionKeys())
		}
		form[model.ScoreField(c)] = v
	}
	return nil
}

// applyEfforts sets effort days keyed by role name.
func applyEfforts(form model.Form, efforts map[string]string) error {
	for key, v := range efforts {
		r, ok := model.ParseRole(strings.TrimSpace(key))
		if !ok {
			return eris.Errorf("unknown role %q (want one of %s)", key, roleKeys())
		}
		form[model.DaysField(r)] = v
	}
	return nil
}

func criterionKeys() string {
	keys := make([]string, 0, len(model.Criteria))
	for _, c := range model.Criteria {
		keys = append(keys, string(c))
	}
	return strings.Join(keys, ", ")
}

func roleKeys() string {
	keys := make([]string, 0, len(model.Roles))
	for _, r := range model.Roles {
		keys = append(keys, string(r))
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// formFromFlags loads --file when given and applies --score and --days.
func formFromFlags(path string, scores, days map[string]string) (model.Form, error) {
	form := model.Form{}
	if path != "" {
		f, err := loadBriefFile(path)
		if err != nil {
			return nil, err
		}
		form = f
	}
	if err := applyScores(form, scores); err != nil {
		return nil, err
	}
	if err := applyEfforts(form, days); err != nil {
		return nil, err
	}
	return form, nil
}
