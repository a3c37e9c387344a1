package notify

import (
	"bytes"
	"fmt"
	"text/template"
)

// Template IDs known to the platform.
const (
	TemplateVerificationCode = "verification_code"
	TemplatePickupReminder   = "pickup_reminder"
	TemplateWelcome          = "welcome"
)

// Template holds the per-channel text for one notification.
type Template struct {
	Subject string
	Email   string
	SMS     string
}

var builtinTemplates = map[string]Template{
	TemplateVerificationCode: {
		Subject: "Your CurbCycle verification code",
		Email: `Hi{{if .Name}} {{.Name}}{{end}},

Your CurbCycle verification code is {{.Code}}.

Enter it on the reminder signup page to confirm your contact details. The code expires in {{.ExpiresMinutes}} minutes.

— CurbCycle`,
		SMS: `CurbCycle: your verification code is {{.Code}}. It expires in {{.ExpiresMinutes}} minutes.`,
	},
	TemplatePickupReminder: {
		Subject: "Pickup reminder: {{.Service}} goes out tomorrow",
		Email: `Hi{{if .Name}} {{.Name}}{{end}},

Friendly reminder: your {{.Service}} pickup is tomorrow, {{.PickupDate}}. Please have your cans at the curb by 7 AM.

— CurbCycle`,
		SMS: `CurbCycle reminder: {{.Service}} pickup tomorrow ({{.PickupDate}}). Cans out by 7 AM.`,
	},
	TemplateWelcome: {
		Subject: "Welcome to CurbCycle",
		Email: `Hi{{if .Name}} {{.Name}}{{end}},

You're all set. We'll remind you the day before each scheduled pickup.

Schedules on file:
{{.ScheduleSummary}}

— CurbCycle`,
		SMS: `Welcome to CurbCycle! We'll text you the day before each pickup.`,
	},
}

// Renderer renders small text templates for outbound notifications with
// strict missing-key semantics.
type Renderer struct{}

// Render compiles the provided template text against data.
func (Renderer) Render(name, tmpl string, data any) (string, error) {
	if tmpl == "" {
		return "", fmt.Errorf("notify: template text required")
	}
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("notify: parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: execute template: %w", err)
	}
	return buf.String(), nil
}

// Lookup returns the builtin template for id.
func Lookup(id string) (Template, error) {
	t, ok := builtinTemplates[id]
	if !ok {
		return Template{}, fmt.Errorf("notify: unknown template %q", id)
	}
	return t, nil
}
