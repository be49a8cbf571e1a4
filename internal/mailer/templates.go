package mailer

import (
	"bytes"
	"fmt"
	"text/template"
)

type kind string

const (
	kindConfirmation kind = "confirmation"
	kindReminder     kind = "reminder"
	kindCancellation kind = "cancellation"
)

type email struct {
	subject *template.Template
	body    *template.Template
}

var funcs = template.FuncMap{
	"day":  func(v view) string { return v.At.Format("Monday, 2 January 2006") },
	"hour": func(v view) string { return v.At.Format("15:04") },
}

func must(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(text))
}

var emails = map[kind]email{
	kindConfirmation: {
		subject: must("confirmation.subject", `Appointment confirmed with {{.DoctorName}}`),
		body: must("confirmation.body", `Hello {{.PatientName}},

your appointment with {{.DoctorName}} is booked for {{day .}} at {{hour .}}.
Location: {{.Location}}
Confirmation code: {{.ConfirmationCode}}
{{if .Reason}}Reason for visit: {{.Reason}}
{{end}}
Please arrive 10 minutes early. Changes and cancellations are accepted up to 24 hours before the appointment.
`),
	},
	kindReminder: {
		subject: must("reminder.subject", `Reminder: appointment {{.Label}} with {{.DoctorName}}`),
		body: must("reminder.body", `Hello {{.PatientName}},

this is a reminder of your appointment {{.Label}} with {{.DoctorName}}
on {{day .}} at {{hour .}}.
Location: {{.Location}}
{{if .ConfirmationCode}}Confirmation code: {{.ConfirmationCode}}
{{end}}`),
	},
	kindCancellation: {
		subject: must("cancellation.subject", `Appointment with {{.DoctorName}} cancelled`),
		body: must("cancellation.body", `Hello {{.PatientName}},

your appointment with {{.DoctorName}} on {{day .}} at {{hour .}} has been cancelled.
{{if .ConfirmationCode}}Reference: {{.ConfirmationCode}}
{{end}}`),
	},
}

type view struct {
	Appointment
	Label string
}

func render(k kind, v view) (subject, body string, err error) {
	e, ok := emails[k]
	if !ok {
		return "", "", fmt.Errorf("unknown email %q", k)
	}

	var sb, bb bytes.Buffer
	if err := e.subject.Execute(&sb, v); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", k, err)
	}
	if err := e.body.Execute(&bb, v); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", k, err)
	}

	return sb.String(), bb.String(), nil
}
