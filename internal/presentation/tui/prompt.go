package tui

import (
	"fmt"
	"strings"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// PromptMarkdown renders a prompt as markdown for terminal play.
func PromptMarkdown(p *domain.Prompt) string {
	var b strings.Builder

	for _, el := range p.Passed {
		writeContent(&b, el)
	}

	if g := p.Gamification; g != nil {
		var parts []string
		if g.LivesEnabled {
			parts = append(parts, fmt.Sprintf("lives %s", strings.Repeat("♥", g.Lives)))
		}
		if g.Streak > 0 {
			parts = append(parts, fmt.Sprintf("streak %d", g.Streak))
		}
		if p.Multiplier > 1 {
			parts = append(parts, fmt.Sprintf("next answer x%g", p.Multiplier))
		}
		if len(parts) > 0 {
			fmt.Fprintf(&b, "_%s_\n\n", strings.Join(parts, " · "))
		}
	}

	if p.LeadGate {
		b.WriteString("> You are out of lives.\n\n")
	}
	if p.Element == nil {
		return b.String()
	}

	base := p.Element.Base()
	if p.Total > 1 {
		fmt.Fprintf(&b, "### %s (%d/%d)\n\n", title(base), p.Index+1, p.Total)
	} else {
		fmt.Fprintf(&b, "### %s\n\n", title(base))
	}
	if p.TimeLimit > 0 {
		fmt.Fprintf(&b, "⏱ %s\n\n", p.TimeLimit)
	}

	switch el := p.Element.(type) {
	case *domain.ChoiceElement:
		for i, o := range el.Options {
			label := o.Label
			if o.Icon != "" {
				label = o.Icon + " " + label
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, label)
		}
		if el.Multi() {
			b.WriteString("\nSeparate several choices with commas.\n")
		}
	case *domain.RatingElement:
		fmt.Fprintf(&b, "Rate from %d to %d.\n", el.Min, el.Max)
	case *domain.OpenTextElement:
		if el.Placeholder != "" {
			fmt.Fprintf(&b, "_%s_\n", el.Placeholder)
		}
	case *domain.LeadFormElement:
		for _, f := range el.Fields {
			req := ""
			if f.Required {
				req = " (required)"
			}
			fmt.Fprintf(&b, "- `%s`%s\n", f.Name, req)
		}
		b.WriteString("\nAnswer as `name=value; email=value`.\n")
	case *domain.GameElement:
		if el.Prompt != "" {
			fmt.Fprintf(&b, "%s\n\n", el.Prompt)
		}
		for i, s := range el.Segments {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s.Label)
		}
	case *domain.SwipeElement:
		if el.Statement != "" {
			fmt.Fprintf(&b, "%s\n\n", el.Statement)
		}
		fmt.Fprintf(&b, "← l: %s    r: %s →\n", el.Left.Label, el.Right.Label)
	}
	return b.String()
}

// ResultMarkdown renders the end of a run.
func ResultMarkdown(st *domain.RunState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Score: %d\n\n", st.Score)
	switch {
	case st.RedirectURL != "":
		fmt.Fprintf(&b, "Continue at %s\n", st.RedirectURL)
	case st.Result != nil && st.Result.Range != nil:
		r := st.Result.Range
		fmt.Fprintf(&b, "**%s**\n\n", r.Title)
		if r.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", r.Description)
		}
		if r.CTAURL != "" {
			fmt.Fprintf(&b, "[%s](%s)\n", orDefault(r.CTAText, r.CTAURL), r.CTAURL)
		}
	case st.Result != nil:
		fmt.Fprintf(&b, "**%s**\n", st.Result.Category)
	}
	return b.String()
}

func writeContent(b *strings.Builder, el domain.Element) {
	c, ok := el.(*domain.ContentElement)
	if !ok {
		return
	}
	if c.Title != "" {
		fmt.Fprintf(b, "### %s\n\n", c.Title)
	}
	switch c.Type {
	case domain.VariantMedia:
		fmt.Fprintf(b, "![%s](%s)\n\n", c.Title, c.URL)
	case domain.VariantScript:
	default:
		if c.Body != "" {
			fmt.Fprintf(b, "%s\n\n", c.Body)
		}
	}
}

func title(b *domain.ElementBase) string {
	return orDefault(b.Title, b.ID)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
