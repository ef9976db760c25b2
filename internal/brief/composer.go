package brief

import (
	"net/url"
	"strings"

	"github.com/sells-group/roi-cli/internal/estimate"
	"github.com/sells-group/roi-cli/internal/model"
)

const (
	defaultBriefSubject = "New task for ROI evaluation"
	defaultFinalSubject = "Task"
	missing             = "-"
)

// Message is a composed plain-text e-mail.
type Message struct {
	To      string `json:"to"`
	CC      string `json:"cc,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Link    string `json:"prefill_url"`
}

// MailtoURL returns the mailto link that opens m in a mail client.
func (m Message) MailtoURL() string {
	var b strings.Builder
	b.WriteString("mailto:")
	b.WriteString(escape(m.To))
	b.WriteString("?")
	if m.CC != "" {
		b.WriteString("cc=")
		b.WriteString(escape(m.CC))
		b.WriteString("&")
	}
	b.WriteString("subject=")
	b.WriteString(escape(m.Subject))
	b.WriteString("&body=")
	b.WriteString(escape(m.Body))
	return b.String()
}

// componentUnescaper turns url.QueryEscape output into the
// encodeURIComponent form: spaces as %20 and !'()* left literal.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escape percent-encodes s for a mailto component.
func escape(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// Composer builds brief and final-evaluation messages.
type Composer struct {
	format       *estimate.Formatter
	baseURL      string
	desk         string
	organisation string
}

// NewComposer creates a Composer. baseURL is the public address of the
// form; desk receives briefs and is copied on final evaluations.
func NewComposer(format *estimate.Formatter, baseURL, desk, organisation string) *Composer {
	return &Composer{
		format:       format,
		baseURL:      baseURL,
		desk:         desk,
		organisation: organisation,
	}
}

// Brief composes the brief request sent to the evaluation desk.
func (c *Composer) Brief(form model.Form, requester string, est model.Estimation) (Message, error) {
	requester, err := ValidateRecipient(requester)
	if err != nil {
		return Message{}, err
	}
	link, err := PrefillURL(c.baseURL, form, requester)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      c.desk,
		Subject: "ROI brief: " + orDefault(form.Get(model.FieldTitle), defaultBriefSubject),
		Body:    c.Summary(form, requester, link, est),
		Link:    link,
	}, nil
}

// Final composes the final evaluation sent back to the requester with the
// desk in copy.
func (c *Composer) Final(form model.Form, requester string, est model.Estimation) (Message, error) {
	requester, err := ValidateRecipient(requester)
	if err != nil {
		return Message{}, err
	}
	link, err := PrefillURL(c.baseURL, form, requester)
	if err != nil {
		return Message{}, err
	}
	body := strings.Join([]string{
		"Final ROI evaluation for the task (" + c.organisation + ").",
		"",
		c.Summary(form, requester, link, est),
	}, "\n")
	return Message{
		To:      requester,
		CC:      c.desk,
		Subject: "Final ROI evaluation: " + orDefault(form.Get(model.FieldTitle), defaultFinalSubject),
		Body:    body,
		Link:    link,
	}, nil
}

// Compose dispatches to Brief or Final by kind.
func (c *Composer) Compose(kind model.EvaluationKind, form model.Form, requester string, est model.Estimation) (Message, error) {
	if kind == model.EvaluationKindFinal {
		return c.Final(form, requester, est)
	}
	return c.Brief(form, requester, est)
}

// Summary renders the multi-line brief layout.
func (c *Composer) Summary(form model.Form, requester, link string, est model.Estimation) string {
	figs := c.format.Figures(est)
	v := func(f model.Field) string { return orDefault(form.Get(f), missing) }

	lines := []string{
		"ROI evaluation brief",
		"",
		"Requester e-mail: " + orDefault(requester, missing),
		"Task title: " + v(model.FieldTitle),
		"Owner: " + v(model.FieldOwner),
		"Date: " + v(model.FieldDate),
		"Status: " + v(model.FieldStatus),
		"",
		"Calculator link with the prefilled brief:",
		orDefault(link, missing),
		"",
		"Task description:",
		v(model.FieldDescription),
		"",
		"Value criteria (scores 0–5):",
	}
	for _, crit := range model.Criteria {
		lines = append(lines, "- "+crit.Title()+": "+v(model.ScoreField(crit)))
	}
	lines = append(lines,
		"",
		"Payback calculation:",
		"- Development cost: "+figs.TotalCost,
		"- Annual benefit: "+figs.AnnualBenefit,
		"- Payback period (months): "+figs.PaybackMonths,
		"- Recommendation: "+figs.Recommendation,
		"",
		"Brief status: "+StatusOf(form).Label(),
	)
	return strings.Join(lines, "\n")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
